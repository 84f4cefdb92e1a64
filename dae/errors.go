// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import "github.com/cpmech/gosl/io"

// ConfigurationError reports invalid user-provided configuration: wrong
// callback arity, negative direction counts, unknown steppers and the like
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// cfgErr builds a ConfigurationError with a formatted message
func cfgErr(msg string, prm ...interface{}) *ConfigurationError {
	return &ConfigurationError{Msg: io.Sf(msg, prm...)}
}

// DimensionMismatchError reports an inconsistency between the dimensions
// implied by two ports of the problem callbacks
type DimensionMismatchError struct {
	Port string
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return io.Sf("inconsistent dimensions: port %q should have size %d, but has size %d", e.Port, e.Want, e.Got)
}

// dimErr builds a DimensionMismatchError
func dimErr(port string, want, got int) *DimensionMismatchError {
	return &DimensionMismatchError{Port: port, Want: want, Got: got}
}

// InternalConsistencyError reports a violated internal invariant, such as a
// block cursor consumed past its end during problem augmentation. These are
// programming errors and abort loudly via panic
type InternalConsistencyError struct {
	Msg string
}

func (e *InternalConsistencyError) Error() string { return e.Msg }

// icPanic aborts with an InternalConsistencyError
func icPanic(msg string, prm ...interface{}) {
	panic(&InternalConsistencyError{Msg: io.Sf(msg, prm...)})
}

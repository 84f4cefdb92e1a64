// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import "github.com/cpmech/gosl/chk"

// Stepper is a time stepping scheme advancing the integrator state over the
// horizon. Implementations read and write the port buffers of the owning
// integrator
type Stepper interface {

	// Reset prepares a forward pass starting from the current buffers
	Reset() error

	// Integrate advances the forward solution up to tstop
	Integrate(tstop float64) error

	// ResetB prepares a backward pass starting from the current buffers
	ResetB() error

	// IntegrateB advances the backward solution down to tstop
	IntegrateB(tstop float64) error

	// Stats reports statistics of the last solve
	Stats() string
}

// steppers holds all available time stepping schemes
var steppers = make(map[string]func(o *Integrator) (Stepper, error))

// RegisterStepper adds a time stepping scheme to the database
func RegisterStepper(name string, alloc func(o *Integrator) (Stepper, error)) {
	if _, ok := steppers[name]; ok {
		chk.Panic("stepper %q is registered twice", name)
	}
	steppers[name] = alloc
}

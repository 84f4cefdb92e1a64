// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package opt implements a registry of named options with defaults,
// descriptions and type-checked access
package opt

import (
	"encoding/json"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// UnknownError reports an attempt to set an option that was never
// registered
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return io.Sf("opt: cannot set unregistered option %q", e.Name)
}

// entry holds one registered option
type entry struct {
	defval interface{}
	value  interface{}
	desc   string
	set    bool
}

// Registry maps option names to values. Options must be registered with
// their defaults before they can be set; asking for an unregistered option
// is a programming error, whereas setting one is a recoverable error
type Registry struct {
	entries map[string]*entry
}

// NewRegistry returns an empty option registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Add registers a new option with its default value and description
func (o *Registry) Add(name string, defval interface{}, desc string) {
	if _, ok := o.entries[name]; ok {
		chk.Panic("opt: option %q is registered twice", name)
	}
	o.entries[name] = &entry{defval: defval, desc: desc}
}

// Has tells whether an option is registered
func (o *Registry) Has(name string) bool {
	_, ok := o.entries[name]
	return ok
}

// HasSet tells whether an option has been explicitly set
func (o *Registry) HasSet(name string) bool {
	e, ok := o.entries[name]
	return ok && e.set
}

// Set assigns a value to a registered option
func (o *Registry) Set(name string, value interface{}) error {
	e, ok := o.entries[name]
	if !ok {
		return &UnknownError{Name: name}
	}
	e.value = value
	e.set = true
	return nil
}

// SetDict assigns a set of options at once
func (o *Registry) SetDict(dict map[string]interface{}) error {
	// sorted for deterministic error reporting
	names := make([]string, 0, len(dict))
	for name := range dict {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := o.Set(name, dict[name]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value of an option, falling back to its default
func (o *Registry) Get(name string) interface{} {
	e, ok := o.entries[name]
	if !ok {
		chk.Panic("opt: cannot get unregistered option %q", name)
	}
	if e.set {
		return e.value
	}
	return e.defval
}

// Description returns the description of an option
func (o *Registry) Description(name string) string {
	e, ok := o.entries[name]
	if !ok {
		chk.Panic("opt: cannot describe unregistered option %q", name)
	}
	return e.desc
}

// GetBool returns a boolean option
func (o *Registry) GetBool(name string) bool {
	v, ok := o.Get(name).(bool)
	if !ok {
		chk.Panic("opt: option %q does not hold a boolean: %v", name, o.Get(name))
	}
	return v
}

// GetFloat returns a numeric option as float64. Integer values are
// converted, since decoded configuration data may carry either form
func (o *Registry) GetFloat(name string) float64 {
	switch v := o.Get(name).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	chk.Panic("opt: option %q does not hold a number: %v", name, o.Get(name))
	return 0
}

// GetInt returns an integer option
func (o *Registry) GetInt(name string) int {
	switch v := o.Get(name).(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	chk.Panic("opt: option %q does not hold an integer: %v", name, o.Get(name))
	return 0
}

// GetString returns a string option
func (o *Registry) GetString(name string) string {
	v, ok := o.Get(name).(string)
	if !ok {
		chk.Panic("opt: option %q does not hold a string: %v", name, o.Get(name))
	}
	return v
}

// GetDict returns a dictionary option. A nil dictionary is returned as an
// empty one
func (o *Registry) GetDict(name string) map[string]interface{} {
	v := o.Get(name)
	if v == nil {
		return map[string]interface{}{}
	}
	d, ok := v.(map[string]interface{})
	if !ok {
		chk.Panic("opt: option %q does not hold a dictionary: %v", name, v)
	}
	return d
}

// Dict returns all explicitly set options
func (o *Registry) Dict() map[string]interface{} {
	res := make(map[string]interface{})
	for name, e := range o.entries {
		if e.set {
			res[name] = e.value
		}
	}
	return res
}

// ReadJSON sets options from a JSON file holding one flat object. A
// missing file is a fatal error
func (o *Registry) ReadJSON(filename string) error {
	b := io.ReadFile(filename)
	var dict map[string]interface{}
	if err := json.Unmarshal(b, &dict); err != nil {
		return chk.Err("opt: cannot decode options file %q: %v", filename, err)
	}
	return o.SetDict(dict)
}

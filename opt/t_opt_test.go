// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_opt01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt01. defaults, setting and dictionaries")

	r := NewRegistry()
	r.Add("t0", 0.0, "beginning of the time horizon")
	r.Add("tf", 1.0, "end of the time horizon")
	r.Add("verbose", false, "show messages")
	r.Add("name", "unnamed", "object name")

	chk.Float64(tst, "t0 default", 1e-15, r.GetFloat("t0"), 0)
	chk.Float64(tst, "tf default", 1e-15, r.GetFloat("tf"), 1)
	if r.HasSet("tf") {
		tst.Errorf("tf should not be marked as set")
		return
	}

	if err := r.Set("tf", 2.5); err != nil {
		tst.Errorf("setting tf failed:\n%v", err)
		return
	}
	chk.Float64(tst, "tf set", 1e-15, r.GetFloat("tf"), 2.5)
	if !r.HasSet("tf") {
		tst.Errorf("tf should be marked as set")
		return
	}

	err := r.Set("no_such_option", 1)
	if err == nil {
		tst.Errorf("unregistered options should be rejected")
		return
	}
	ue, ok := err.(*UnknownError)
	if !ok {
		tst.Errorf("unregistered options should yield UnknownError; got %T", err)
		return
	}
	if ue.Name != "no_such_option" {
		tst.Errorf("UnknownError should carry the option name; got %q", ue.Name)
		return
	}

	dict := r.Dict()
	chk.IntAssert(len(dict), 1)
	chk.Float64(tst, "dict tf", 1e-15, dict["tf"].(float64), 2.5)

	s := NewRegistry()
	s.Add("tf", 1.0, "end of the time horizon")
	if err := s.SetDict(dict); err != nil {
		tst.Errorf("setting from dictionary failed:\n%v", err)
		return
	}
	chk.Float64(tst, "propagated tf", 1e-15, s.GetFloat("tf"), 2.5)
}

func Test_opt02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt02. numeric conversions and JSON decoding")

	r := NewRegistry()
	r.Add("dt", 1e-3, "step size")
	r.Add("nsteps", 10, "number of steps")
	r.Add("stepper", "rk4", "scheme name")

	// JSON numbers decode as float64; integer options convert back
	fn := filepath.Join(tst.TempDir(), "opt02.json")
	if err := os.WriteFile(fn, []byte(`{"dt": 0.5, "nsteps": 3, "stepper": "rk4"}`), 0644); err != nil {
		tst.Fatalf("cannot write options file:\n%v", err)
	}
	if err := r.ReadJSON(fn); err != nil {
		tst.Errorf("reading options failed:\n%v", err)
		return
	}
	chk.Float64(tst, "dt", 1e-15, r.GetFloat("dt"), 0.5)
	chk.IntAssert(r.GetInt("nsteps"), 3)
	if r.GetString("stepper") != "rk4" {
		tst.Errorf("stepper option mismatch")
	}
}

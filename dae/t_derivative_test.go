// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/Fleurinck/casadi/sym"
)

// evalDeriv evaluates a derivative function with the given nonempty inputs,
// filling the remaining ports with zero-length or zero-valued slices
func evalDeriv(tst *testing.T, d *sym.Function, in map[int][]float64) [][]float64 {
	full := make([][]float64, d.NumIn())
	for i := range full {
		full[i] = make([]float64, d.InSize(i))
		if v, ok := in[i]; ok {
			copy(full[i], v)
		}
	}
	res, err := d.Eval(full)
	if err != nil {
		tst.Fatalf("evaluation failed:\n%v", err)
	}
	return res
}

func Test_deriv01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv01. forward sensitivities of the decay problem")

	it := newDecay(tst, 1.0, 1e-3)
	d, err := it.GetDerivative(2, 0)
	if err != nil {
		tst.Errorf("derivative assembly failed:\n%v", err)
		return
	}
	chk.IntAssert(d.NumIn(), 3*NumIn)
	chk.IntAssert(d.NumOut(), 3*NumOut)

	// seeds: direction 0 perturbs x0, direction 1 perturbs p
	x0, p := 2.0, 1.5
	res := evalDeriv(tst, d, map[int][]float64{
		X0: {x0},
		P:  {p},
		NumIn + X0: {1},
		2*NumIn + P: {1},
	})

	ep := math.Exp(-p)
	chk.Float64(tst, "xf        ", 1e-10, res[XF][0], x0*ep)
	chk.Float64(tst, "qf        ", 1e-10, res[QF][0], x0*(1-ep)/p)
	chk.Float64(tst, "d xf / dx0", 1e-9, res[NumOut+XF][0], ep)
	chk.Float64(tst, "d qf / dx0", 1e-9, res[NumOut+QF][0], (1-ep)/p)
	chk.Float64(tst, "d xf / dp ", 1e-9, res[2*NumOut+XF][0], -x0*ep)
	chk.Float64(tst, "d qf / dp ", 1e-9, res[2*NumOut+QF][0], x0*(ep*p-(1-ep))/(p*p))
}

func Test_deriv02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv02. adjoint sensitivities of the decay problem")

	it := newDecay(tst, 1.0, 1e-3)
	d, err := it.GetDerivative(0, 1)
	if err != nil {
		tst.Errorf("derivative assembly failed:\n%v", err)
		return
	}
	chk.IntAssert(d.NumIn(), NumIn+NumOut)
	chk.IntAssert(d.NumOut(), NumOut+NumIn)

	// seed on xf: adjoints are the gradient of xf
	x0, p := 2.0, 1.5
	res := evalDeriv(tst, d, map[int][]float64{
		X0: {x0},
		P:  {p},
		NumIn + XF: {1},
	})
	ep := math.Exp(-p)
	chk.Float64(tst, "d xf / dx0", 1e-5, res[NumOut+X0][0], ep)
	chk.Float64(tst, "d xf / dp ", 1e-5, res[NumOut+P][0], -x0*ep)

	// seed on qf: adjoints are the gradient of qf
	res = evalDeriv(tst, d, map[int][]float64{
		X0: {x0},
		P:  {p},
		NumIn + QF: {1},
	})
	chk.Float64(tst, "d qf / dx0", 1e-5, res[NumOut+X0][0], (1-ep)/p)
	chk.Float64(tst, "d qf / dp ", 1e-5, res[NumOut+P][0], x0*(ep*p-(1-ep))/(p*p))
}

func Test_deriv03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv03. forward sensitivities match finite differences")

	it := newDecay(tst, 1.0, 1e-3)
	d, err := it.GetDerivative(1, 0)
	if err != nil {
		tst.Errorf("derivative assembly failed:\n%v", err)
		return
	}

	base := newDecay(tst, 1.0, 1e-3)
	x0, p, h := 1.2, 0.8, 1e-6
	eval := func(x0v, pv float64) (xf float64) {
		base.In[X0][0] = x0v
		base.In[P][0] = pv
		if err := base.Evaluate(); err != nil {
			tst.Fatalf("evaluation failed:\n%v", err)
		}
		return base.Out[XF][0]
	}
	num := (eval(x0+h, p) - eval(x0-h, p)) / (2 * h)

	res := evalDeriv(tst, d, map[int][]float64{
		X0: {x0},
		P:  {p},
		NumIn + X0: {1},
	})
	chk.AnaNum(tst, "d xf / dx0", 1e-8, res[NumOut+XF][0], num, chk.Verbose)
}

func Test_deriv04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv04. options pass down to the augmented integrator")

	it := newDecay(tst, 1.0, 1e-3)
	it.Opts.Set("augmented_options", map[string]interface{}{"dt": 5e-4})
	if _, err := it.GetDerivative(1, 0); err != nil {
		tst.Errorf("derivative assembly failed:\n%v", err)
		return
	}

	// unknown augmented options are a configuration error
	it.Opts.Set("augmented_options", map[string]interface{}{"no_such_option": 1})
	_, err := it.GetDerivative(1, 0)
	if err == nil {
		tst.Errorf("unknown augmented options should be rejected")
		return
	}
	if _, ok := err.(*ConfigurationError); !ok {
		tst.Errorf("unknown augmented options should yield ConfigurationError; got %T", err)
	}
}

func Test_deriv05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv05. derivative functions are well-formed")

	it := newDecay(tst, 1.0, 1e-2)
	d, err := it.GetDerivative(1, 1)
	if err != nil {
		tst.Errorf("derivative assembly failed:\n%v", err)
		return
	}
	chk.IntAssert(d.NumIn(), 2*NumIn+NumOut)
	chk.IntAssert(d.NumOut(), 2*NumOut+NumIn)
	if d.Name() != io.Sf("%s_deriv_1_1", it.Name()) {
		tst.Errorf("unexpected derivative name %q", d.Name())
	}

	// input shapes: seed sets mirror the base ports
	for i := 0; i < NumIn; i++ {
		chk.IntAssert(d.InSize(NumIn+i), it.InSize(i))
	}
	for i := 0; i < NumOut; i++ {
		chk.IntAssert(d.InSize(2*NumIn+i), it.OutSize(i))
	}
}

func Test_deriv06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv06. zero seeds reproduce the primal solution")

	base := newDecay(tst, 1.0, 1e-3)
	base.In[X0][0] = 2.0
	base.In[P][0] = 1.5
	if err := base.Evaluate(); err != nil {
		tst.Fatalf("evaluation failed:\n%v", err)
	}

	it := newDecay(tst, 1.0, 1e-3)
	d, err := it.GetDerivative(1, 1)
	if err != nil {
		tst.Errorf("derivative assembly failed:\n%v", err)
		return
	}
	res := evalDeriv(tst, d, map[int][]float64{
		X0: {2.0},
		P:  {1.5},
	})
	chk.Float64(tst, "xf", 1e-15, res[XF][0], base.Out[XF][0])
	chk.Float64(tst, "qf", 1e-15, res[QF][0], base.Out[QF][0])
}

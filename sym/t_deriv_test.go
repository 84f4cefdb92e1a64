// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// fdiff computes a central finite difference of component icomp of output
// iout with respect to component jcomp of input iin
func fdiff(tst *testing.T, f *Function, in [][]float64, iin, jcomp, iout, icomp int) float64 {
	h := 1e-7
	pert := make([][]float64, len(in))
	for i := range in {
		pert[i] = make([]float64, len(in[i]))
		copy(pert[i], in[i])
	}
	pert[iin][jcomp] += h
	rp, err := f.Eval(pert)
	if err != nil {
		tst.Fatalf("evaluation failed:\n%v", err)
	}
	pert[iin][jcomp] -= 2 * h
	rm, err := f.Eval(pert)
	if err != nil {
		tst.Fatalf("evaluation failed:\n%v", err)
	}
	return (rp[iout][icomp] - rm[iout][icomp]) / (2 * h)
}

func Test_deriv01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv01. forward directional derivatives")

	// f(x, p) = [x0*x1 + p0, x0 - x1]
	x := Sym("x", 2)
	p := Sym("p", 1)
	x01 := VertSplit(x, []int{0, 1, 2})
	f := NewFunction("f", []Vec{x, p}, []Vec{
		Vertcat(Add(Mul(x01[0], x01[1]), p), Sub(x01[0], x01[1])),
	})

	d, err := f.Derivative(2, 0)
	if err != nil {
		tst.Errorf("derivative construction failed:\n%v", err)
		return
	}
	chk.IntAssert(d.NumIn(), 3*2)
	chk.IntAssert(d.NumOut(), 3*1)

	in := [][]float64{{2, 3}, {0.5}}
	res, err := d.Eval([][]float64{
		in[0], in[1],
		{1, 0}, {0}, // seed: d/dx0
		{0, 0}, {1}, // seed: d/dp0
	})
	if err != nil {
		tst.Errorf("evaluation failed:\n%v", err)
		return
	}
	chk.Array(tst, "nondiff", 1e-15, res[0], []float64{6.5, -1})
	for i := 0; i < 2; i++ {
		num := fdiff(tst, f, in, 0, 0, 0, i)
		chk.AnaNum(tst, io.Sf("d f%d / d x0", i), 1e-7, res[1][i], num, chk.Verbose)
		num = fdiff(tst, f, in, 1, 0, 0, i)
		chk.AnaNum(tst, io.Sf("d f%d / d p0", i), 1e-7, res[2][i], num, chk.Verbose)
	}
}

func Test_deriv02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv02. adjoint directional derivatives")

	// same function as deriv01; adjoint of output seeds = rows of the Jacobian
	x := Sym("x", 2)
	p := Sym("p", 1)
	x01 := VertSplit(x, []int{0, 1, 2})
	f := NewFunction("f", []Vec{x, p}, []Vec{
		Vertcat(Add(Mul(x01[0], x01[1]), p), Sub(x01[0], x01[1])),
	})

	d, err := f.Derivative(0, 1)
	if err != nil {
		tst.Errorf("derivative construction failed:\n%v", err)
		return
	}
	chk.IntAssert(d.NumIn(), 2+1)
	chk.IntAssert(d.NumOut(), 1+2)

	in := [][]float64{{2, 3}, {0.5}}
	res, err := d.Eval([][]float64{in[0], in[1], {1, 0}}) // seed on first output
	if err != nil {
		tst.Errorf("evaluation failed:\n%v", err)
		return
	}
	// gradient of f0 = x0*x1 + p0
	chk.Array(tst, "adj x", 1e-15, res[1], []float64{3, 2})
	chk.Array(tst, "adj p", 1e-15, res[2], []float64{1})
}

func Test_deriv03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("deriv03. derivatives through embedded calls")

	// inner: g(u) = u*u; outer: h(x) = g(x) - x
	u := Sym("u", 2)
	g := NewFunction("square", []Vec{u}, []Vec{Mul(u, u)})
	x := Sym("x", 2)
	h := NewFunction("h", []Vec{x}, []Vec{Sub(Call(g, []Vec{x})[0], x)})

	d, err := h.Derivative(1, 1)
	if err != nil {
		tst.Errorf("derivative construction failed:\n%v", err)
		return
	}

	in := []float64{1.5, -0.5}
	res, err := d.Eval([][]float64{in, {1, 1}, {1, 1}})
	if err != nil {
		tst.Errorf("evaluation failed:\n%v", err)
		return
	}
	// jacobian is diag(2*x - 1); fwd and adj with all-ones seeds agree
	chk.Array(tst, "nondiff", 1e-15, res[0], []float64{0.75, 0.75})
	chk.Array(tst, "fwd    ", 1e-14, res[1], []float64{2, -2})
	chk.Array(tst, "adj    ", 1e-14, res[2], []float64{2, -2})
}

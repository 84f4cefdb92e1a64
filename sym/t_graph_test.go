// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_graph01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph01. evaluation of simple expressions")

	x := Sym("x", 2)
	y := Sym("y", 2)
	f := NewFunction("f", []Vec{x, y}, []Vec{
		Add(Mul(x, x), Neg(y)), // x*x - y
		Sub(x, y),
	})
	chk.IntAssert(f.NumIn(), 2)
	chk.IntAssert(f.NumOut(), 2)
	chk.IntAssert(f.OutSize(0), 2)

	res, err := f.Eval([][]float64{{2, 3}, {1, -1}})
	if err != nil {
		tst.Errorf("evaluation failed:\n%v", err)
		return
	}
	chk.Array(tst, "x*x-y", 1e-15, res[0], []float64{3, 10})
	chk.Array(tst, "x-y", 1e-15, res[1], []float64{1, 4})
}

func Test_graph02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph02. vertical concatenation and split")

	a := Sym("a", 2)
	b := Sym("b", 3)
	cat := Vertcat(a, Vec{}, b)
	chk.IntAssert(cat.Len(), 5)

	parts := VertSplit(cat, []int{0, 2, 2, 5})
	chk.IntAssert(len(parts), 3)
	chk.IntAssert(parts[0].Len(), 2)
	chk.IntAssert(parts[1].Len(), 0)
	chk.IntAssert(parts[2].Len(), 3)

	f := NewFunction("roundtrip", []Vec{a, b}, []Vec{parts[0], parts[2], Densify(cat)})
	res, err := f.Eval([][]float64{{1, 2}, {3, 4, 5}})
	if err != nil {
		tst.Errorf("evaluation failed:\n%v", err)
		return
	}
	chk.Array(tst, "first block ", 1e-15, res[0], []float64{1, 2})
	chk.Array(tst, "second block", 1e-15, res[1], []float64{3, 4, 5})
	chk.Array(tst, "dense concat", 1e-15, res[2], []float64{1, 2, 3, 4, 5})
}

func Test_graph03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph03. embedded calls and expansion")

	// inner function: g(u) = u*u
	u := Sym("u", 2)
	g := NewFunction("square", []Vec{u}, []Vec{Mul(u, u)})

	// outer function: h(x) = g(x) + x
	x := Sym("x", 2)
	gx := Call(g, []Vec{x})
	h := NewFunction("h", []Vec{x}, []Vec{Add(gx[0], x)})

	if h.Expanded() {
		tst.Errorf("h should contain an embedded call")
		return
	}
	he := h.Expand()
	if !he.Expanded() {
		tst.Errorf("expansion should remove the embedded call")
		return
	}

	in := [][]float64{{3, -2}}
	res1, err := h.Eval(in)
	if err != nil {
		tst.Errorf("evaluation failed:\n%v", err)
		return
	}
	res2, err := he.Eval(in)
	if err != nil {
		tst.Errorf("evaluation of expanded function failed:\n%v", err)
		return
	}
	chk.Array(tst, "h(x)       ", 1e-15, res1[0], []float64{12, 2})
	chk.Array(tst, "expanded   ", 1e-15, res2[0], res1[0])
}

func Test_graph04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph04. input validation")

	x := Sym("x", 2)
	f := NewFunction("f", []Vec{x}, []Vec{Neg(x)})

	_, err := f.Eval([][]float64{{1, 2, 3}})
	if err == nil {
		tst.Errorf("wrong input length should be rejected")
		return
	}
	_, err = f.Eval([][]float64{{1, 2}, {3}})
	if err == nil {
		tst.Errorf("wrong number of inputs should be rejected")
	}
}

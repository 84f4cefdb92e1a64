// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/Fleurinck/casadi/sym"
)

// chain builds a forward problem whose second state feeds on the first:
//   dx0/dt = -x0, dx1/dt = x0, dq/dt = x1
func chain() *sym.Function {
	t := sym.Sym("t", 1)
	x := sym.Sym("x", 2)
	z := sym.Sym("z", 0)
	p := sym.Sym("p", 1)
	xs := sym.VertSplit(x, []int{0, 1, 2})
	return sym.NewFunction("chain", []sym.Vec{t, x, z, p}, []sym.Vec{
		sym.Vertcat(sym.Neg(xs[0]), xs[0]),
		{},
		xs[1],
	})
}

func Test_spjac01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spjac01. system matrix pattern of the forward problem")

	it := NewIntegrator(chain(), nil)
	it.Opts.Set("dt", 0.1)
	if err := it.Init(); err != nil {
		tst.Errorf("initialization failed:\n%v", err)
		return
	}

	jac := it.SpJacF()
	m, n := jac.Size()
	chk.IntAssert(m, 2)
	chk.IntAssert(n, 2)
	chk.Ints(tst, "row 0", jac.Row(0), []int{0})
	chk.Ints(tst, "row 1", jac.Row(1), []int{0, 1}) // diagonal always present
}

func Test_spprop01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spprop01. forward dependency propagation")

	it := NewIntegrator(chain(), nil)
	it.Opts.Set("dt", 0.1)
	if err := it.Init(); err != nil {
		tst.Errorf("initialization failed:\n%v", err)
		return
	}

	// distinct bits on the two initial states; one on the parameter
	it.InBits[X0][0] = 1
	it.InBits[X0][1] = 2
	it.InBits[P][0] = 4
	if err := it.PropagateSparsity(true); err != nil {
		tst.Errorf("propagation failed:\n%v", err)
		return
	}

	// the first state only sees itself; the second accumulates the first;
	// the unused parameter contributes nowhere
	chk.IntAssert(int(it.OutBits[XF][0]), 1)
	chk.IntAssert(int(it.OutBits[XF][1]), 3)
	chk.IntAssert(int(it.OutBits[QF][0]), 3)

	// the pass only depends on the input bits: rerunning reproduces it
	if err := it.PropagateSparsity(true); err != nil {
		tst.Errorf("propagation failed:\n%v", err)
		return
	}
	chk.IntAssert(int(it.OutBits[XF][0]), 1)
	chk.IntAssert(int(it.OutBits[XF][1]), 3)
	chk.IntAssert(int(it.OutBits[QF][0]), 3)
}

func Test_spprop02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spprop02. reverse dependency propagation")

	it := NewIntegrator(chain(), nil)
	it.Opts.Set("dt", 0.1)
	if err := it.Init(); err != nil {
		tst.Errorf("initialization failed:\n%v", err)
		return
	}

	it.OutBits[XF][0] = 1
	it.OutBits[XF][1] = 1
	it.OutBits[QF][0] = 2
	if err := it.PropagateSparsity(false); err != nil {
		tst.Errorf("propagation failed:\n%v", err)
		return
	}

	// the reverse pass is a coarse over-approximation: every initial state
	// and parameter picks up every output bit
	chk.IntAssert(int(it.InBits[X0][0]), 3)
	chk.IntAssert(int(it.InBits[X0][1]), 3)
	chk.IntAssert(int(it.InBits[P][0]), 3)
}

func Test_spprop03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spprop03. propagation with a backward problem")

	// backward problem reading the forward state
	t := sym.Sym("t", 1)
	x := sym.Sym("x", 1)
	z := sym.Sym("z", 0)
	p := sym.Sym("p", 1)
	f := sym.NewFunction("f", []sym.Vec{t, x, z, p}, []sym.Vec{
		sym.Neg(sym.Mul(p, x)),
		{},
		{},
	})
	rx := sym.Sym("rx", 1)
	rz := sym.Sym("rz", 0)
	rp := sym.Sym("rp", 0)
	g := sym.NewFunction("g", []sym.Vec{t, x, z, p, rx, rz, rp}, []sym.Vec{
		sym.Mul(x, rx),
		{},
		{},
	})
	it := NewIntegrator(f, g)
	it.Opts.Set("dt", 0.1)
	if err := it.Init(); err != nil {
		tst.Errorf("initialization failed:\n%v", err)
		return
	}

	it.InBits[X0][0] = 1
	it.InBits[P][0] = 2
	it.InBits[RX0][0] = 4
	if err := it.PropagateSparsity(true); err != nil {
		tst.Errorf("propagation failed:\n%v", err)
		return
	}
	chk.IntAssert(int(it.OutBits[XF][0]), 3)
	chk.IntAssert(int(it.OutBits[RXF][0]), 7) // depends on x, p and its own seed
}

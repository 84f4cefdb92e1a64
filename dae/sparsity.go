// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"github.com/Fleurinck/casadi/sym"
)

// SpJacF returns the structural pattern of the forward problem system
// matrix: the Jacobian of the differential and algebraic residuals with
// respect to the differential and algebraic states, with the diagonal of
// the differential block always present
func (o *Integrator) SpJacF() *sym.Pattern {
	ret := sym.PatternUnion(o.F.JacSparsity(DaeX, DaeOde), sym.PatternDiag(o.Nx))
	if o.Nz == 0 {
		return ret
	}
	return sym.PatternVertcat(
		sym.PatternHorzcat(ret, o.F.JacSparsity(DaeZ, DaeOde)),
		sym.PatternHorzcat(o.F.JacSparsity(DaeX, DaeAlg), o.F.JacSparsity(DaeZ, DaeAlg)),
	)
}

// SpJacG returns the structural pattern of the backward problem system
// matrix, defined like SpJacF on the backward states
func (o *Integrator) SpJacG() *sym.Pattern {
	ret := sym.PatternUnion(o.G.JacSparsity(RdaeRX, RdaeOde), sym.PatternDiag(o.Nrx))
	if o.Nrz == 0 {
		return ret
	}
	return sym.PatternVertcat(
		sym.PatternHorzcat(ret, o.G.JacSparsity(RdaeRZ, RdaeOde)),
		sym.PatternHorzcat(o.G.JacSparsity(RdaeRX, RdaeAlg), o.G.JacSparsity(RdaeRZ, RdaeAlg)),
	)
}

// PropagateSparsity transfers dependency bits between the input and output
// ports. The forward pass is fine-grained: bits travel through the problem
// callbacks and the structural solvers, so unrelated components stay
// independent. The reverse pass is a coarse over-approximation folding all
// output bits onto all relevant inputs. Neither pass depends on the numeric
// port data, and both are idempotent
func (o *Integrator) PropagateSparsity(fwd bool) (err error) {
	o.mustInit("PropagateSparsity")
	if fwd {
		return o.spForward()
	}
	o.spReverse()
	return
}

// spForward performs the fine-grained forward dependency propagation
func (o *Integrator) spForward() (err error) {

	// propagate through the forward callback; the algebraic states carry
	// no seeds of their own, their dependencies come from the solve
	fin := make([][]sym.Bvec, DaeNumIn)
	fin[DaeT] = make([]sym.Bvec, 1)
	fin[DaeX] = o.InBits[X0]
	fin[DaeZ] = make([]sym.Bvec, o.Nz)
	fin[DaeP] = o.InBits[P]
	fout, err := o.F.SpForward(fin)
	if err != nil {
		return
	}

	// close the combined state over the implicit coupling
	tmp1 := make([]sym.Bvec, o.Nx+o.Nz)
	tmp2 := make([]sym.Bvec, o.Nx+o.Nz)
	copy(tmp1[:o.Nx], fout[DaeOde])
	copy(tmp1[o.Nx:], fout[DaeAlg])
	copy(tmp2[:o.Nx], o.InBits[X0])
	for i := range tmp1 {
		tmp1[i] |= tmp2[i]
	}
	o.LinsolF.SpSolve(tmp2, tmp1, false)
	copy(o.OutBits[XF], tmp2[:o.Nx])
	copy(o.OutBits[ZF], tmp2[o.Nx:])

	// quadratures pick up the dependencies of the solved states
	if o.Nq > 0 {
		fin[DaeX] = o.OutBits[XF]
		fin[DaeZ] = o.OutBits[ZF]
		fout, err = o.F.SpForward(fin)
		if err != nil {
			return
		}
		copy(o.OutBits[QF], fout[DaeQuad])
	}

	if o.G == nil {
		return
	}

	// symmetric pass over the backward problem
	gin := make([][]sym.Bvec, RdaeNumIn)
	gin[RdaeT] = make([]sym.Bvec, 1)
	gin[RdaeX] = o.OutBits[XF]
	gin[RdaeZ] = o.OutBits[ZF]
	gin[RdaeP] = o.InBits[P]
	gin[RdaeRX] = o.InBits[RX0]
	gin[RdaeRZ] = make([]sym.Bvec, o.Nrz)
	gin[RdaeRP] = o.InBits[RP]
	gout, err := o.G.SpForward(gin)
	if err != nil {
		return
	}
	tmp1 = make([]sym.Bvec, o.Nrx+o.Nrz)
	tmp2 = make([]sym.Bvec, o.Nrx+o.Nrz)
	copy(tmp1[:o.Nrx], gout[RdaeOde])
	copy(tmp1[o.Nrx:], gout[RdaeAlg])
	copy(tmp2[:o.Nrx], o.InBits[RX0])
	for i := range tmp1 {
		tmp1[i] |= tmp2[i]
	}
	o.LinsolG.SpSolve(tmp2, tmp1, false)
	copy(o.OutBits[RXF], tmp2[:o.Nrx])
	copy(o.OutBits[RZF], tmp2[o.Nrx:])
	if o.Nrq > 0 {
		gin[RdaeRX] = o.OutBits[RXF]
		gin[RdaeRZ] = o.OutBits[RZF]
		gout, err = o.G.SpForward(gin)
		if err != nil {
			return
		}
		copy(o.OutBits[RQF], gout[RdaeQuad])
	}
	return
}

// spReverse performs the coarse reverse dependency propagation: the
// backward results may depend on any backward final condition, and the
// forward results on any initial condition or parameter. Initial guesses of
// the algebraic states do not influence the solution
func (o *Integrator) spReverse() {
	var all sym.Bvec
	for _, b := range o.OutBits[RXF] {
		all |= b
	}
	for _, b := range o.OutBits[RQF] {
		all |= b
	}
	fillBits(o.InBits[RX0], all)
	fillBits(o.InBits[RP], all)
	for _, b := range o.OutBits[XF] {
		all |= b
	}
	for _, b := range o.OutBits[QF] {
		all |= b
	}
	fillBits(o.InBits[X0], all)
	fillBits(o.InBits[P], all)
	fillBits(o.InBits[Z0], 0)
	fillBits(o.InBits[RZ0], 0)
}

// fillBits assigns the same bits to every component
func fillBits(v []sym.Bvec, b sym.Bvec) {
	for i := range v {
		v[i] = b
	}
}

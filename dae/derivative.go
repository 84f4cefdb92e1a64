// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"github.com/cpmech/gosl/io"

	"github.com/Fleurinck/casadi/sym"
)

// GetDerivative assembles the derivative function of the integrator for
// nfwd forward and nadj adjoint sensitivity directions. The returned
// function takes the original integrator inputs, nfwd sets of forward seeds
// shaped like the inputs and nadj sets of adjoint seeds shaped like the
// outputs; it returns the nondifferentiated outputs, nfwd sets of forward
// sensitivities shaped like the outputs and nadj sets of adjoint
// sensitivities shaped like the inputs. Internally, a single augmented
// integrator carries all directions in one sweep over the horizon
func (o *Integrator) GetDerivative(nfwd, nadj int) (ret *sym.Function, err error) {
	o.mustInit("GetDerivative")

	// augmented problem and its integrator
	fAug, gAug, offs, err := o.BuildAugmented(nfwd, nadj)
	if err != nil {
		return
	}
	aug := NewIntegrator(fAug, gAug)
	if err = aug.Opts.SetDict(o.Opts.Dict()); err != nil {
		return nil, cfgErr("cannot configure the augmented integrator: %v", err)
	}
	if o.Opts.HasSet("augmented_options") {
		if err = aug.Opts.SetDict(o.Opts.GetDict("augmented_options")); err != nil {
			return nil, cfgErr("cannot configure the augmented integrator: %v", err)
		}
	}
	if err = aug.Init(); err != nil {
		return
	}

	// seed symbols, one set per direction; the adjoint seeds are shaped
	// like the integrator outputs
	retIn := make([]sym.Vec, 0, (1+nfwd)*NumIn+nadj*NumOut)
	var x0s, ps, z0s, rx0s, rps, rz0s []sym.Vec
	for dir := -1; dir < nfwd; dir++ {
		sfx := ""
		if dir >= 0 {
			sfx = io.Sf("_%d", dir)
		}
		dd := make([]sym.Vec, NumIn)
		dd[X0] = sym.Sym("x0"+sfx, o.Nx)
		dd[P] = sym.Sym("p"+sfx, o.Np)
		dd[Z0] = sym.Sym("z0"+sfx, o.Nz)
		dd[RX0] = sym.Sym("rx0"+sfx, o.Nrx)
		dd[RP] = sym.Sym("rp"+sfx, o.Nrp)
		dd[RZ0] = sym.Sym("rz0"+sfx, o.Nrz)
		x0s = append(x0s, dd[X0])
		ps = append(ps, dd[P])
		z0s = append(z0s, dd[Z0])
		rx0s = append(rx0s, dd[RX0])
		rps = append(rps, dd[RP])
		rz0s = append(rz0s, dd[RZ0])
		retIn = append(retIn, dd...)
	}
	for dir := 0; dir < nadj; dir++ {
		dd := make([]sym.Vec, NumOut)
		dd[XF] = sym.Sym(io.Sf("xf_%d", dir), o.Nx)
		dd[QF] = sym.Sym(io.Sf("qf_%d", dir), o.Nq)
		dd[ZF] = sym.Sym(io.Sf("zf_%d", dir), o.Nz)
		dd[RXF] = sym.Sym(io.Sf("rxf_%d", dir), o.Nrx)
		dd[RQF] = sym.Sym(io.Sf("rqf_%d", dir), o.Nrq)
		dd[RZF] = sym.Sym(io.Sf("rzf_%d", dir), o.Nrz)
		// adjoint seeds on the outputs enter the opposite problem
		rx0s = append(rx0s, dd[XF])
		rps = append(rps, dd[QF])
		rz0s = append(rz0s, dd[ZF])
		x0s = append(x0s, dd[RXF])
		ps = append(ps, dd[RQF])
		z0s = append(z0s, dd[RZF])
		retIn = append(retIn, dd...)
	}

	// one call to the augmented integrator
	augIn := make([]sym.Vec, NumIn)
	augIn[X0] = sym.Vertcat(x0s...)
	augIn[P] = sym.Vertcat(ps...)
	augIn[Z0] = sym.Vertcat(z0s...)
	augIn[RX0] = sym.Vertcat(rx0s...)
	augIn[RP] = sym.Vertcat(rps...)
	augIn[RZ0] = sym.Vertcat(rz0s...)
	augOut := sym.Call(aug, augIn)

	// split the augmented outputs back into per-direction blocks
	xf := newCursor("xf", augOut[XF], offs.X)
	qf := newCursor("qf", augOut[QF], offs.Q)
	zf := newCursor("zf", augOut[ZF], offs.Z)
	rxf := newCursor("rxf", augOut[RXF], offs.Rx)
	rqf := newCursor("rqf", augOut[RQF], offs.Rq)
	rzf := newCursor("rzf", augOut[RZF], offs.Rz)

	retOut := make([]sym.Vec, 0, (1+nfwd)*NumOut+nadj*NumIn)
	for dir := -1; dir < nfwd; dir++ {
		dd := make([]sym.Vec, NumOut)
		if o.Nx > 0 {
			dd[XF] = xf.next()
		}
		if o.Nq > 0 {
			dd[QF] = qf.next()
		}
		if o.Nz > 0 {
			dd[ZF] = zf.next()
		}
		if o.Nrx > 0 {
			dd[RXF] = rxf.next()
		}
		if o.Nrq > 0 {
			dd[RQF] = rqf.next()
		}
		if o.Nrz > 0 {
			dd[RZF] = rzf.next()
		}
		retOut = append(retOut, dd...)
	}
	for dir := 0; dir < nadj; dir++ {
		// adjoint sensitivities are shaped like the inputs and come from
		// the opposite problem
		dd := make([]sym.Vec, NumIn)
		if o.Nx > 0 {
			dd[X0] = rxf.next()
		}
		if o.Np > 0 {
			dd[P] = rqf.next()
		}
		if o.Nz > 0 {
			dd[Z0] = rzf.next()
		}
		if o.Nrx > 0 {
			dd[RX0] = xf.next()
		}
		if o.Nrp > 0 {
			dd[RP] = qf.next()
		}
		if o.Nrz > 0 {
			dd[RZ0] = zf.next()
		}
		retOut = append(retOut, dd...)
	}
	xf.assertDone()
	qf.assertDone()
	zf.assertDone()
	rxf.assertDone()
	rqf.assertDone()
	rzf.assertDone()

	name := io.Sf("%s_deriv_%d_%d", o.Name(), nfwd, nadj)
	return sym.NewFunction(name, retIn, retOut), nil
}

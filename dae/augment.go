// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"github.com/Fleurinck/casadi/sym"
)

// AugOffset holds cumulative offset sequences laying out the state vectors
// of an augmented problem: one block for the nondifferentiated problem,
// one per forward direction and one per adjoint direction. Each sequence
// starts at 0 and blocks of size zero are omitted
type AugOffset struct {
	X  []int // differential states
	Z  []int // algebraic states
	Q  []int // quadrature states
	P  []int // parameters
	Rx []int // backward differential states
	Rz []int // backward algebraic states
	Rq []int // backward quadrature states
	Rp []int // backward parameters
}

// NewAugOffset computes the offset sequences for augmenting a problem with
// the given dimensions by nfwd forward and nadj adjoint directions. Forward
// directions replicate every quantity in place; adjoint directions grow the
// opposite problem, with parameters and quadratures trading places
func NewAugOffset(d Dims, nfwd, nadj int) (o *AugOffset) {
	o = &AugOffset{
		X:  []int{0},
		Z:  []int{0},
		Q:  []int{0},
		P:  []int{0},
		Rx: []int{0},
		Rz: []int{0},
		Rq: []int{0},
		Rp: []int{0},
	}
	for dir := -1; dir < nfwd; dir++ {
		if d.Nx > 0 {
			o.X = append(o.X, d.Nx)
		}
		if d.Nz > 0 {
			o.Z = append(o.Z, d.Nz)
		}
		if d.Nq > 0 {
			o.Q = append(o.Q, d.Nq)
		}
		if d.Np > 0 {
			o.P = append(o.P, d.Np)
		}
		if d.Nrx > 0 {
			o.Rx = append(o.Rx, d.Nrx)
		}
		if d.Nrz > 0 {
			o.Rz = append(o.Rz, d.Nrz)
		}
		if d.Nrq > 0 {
			o.Rq = append(o.Rq, d.Nrq)
		}
		if d.Nrp > 0 {
			o.Rp = append(o.Rp, d.Nrp)
		}
	}
	for dir := 0; dir < nadj; dir++ {
		if d.Nx > 0 {
			o.Rx = append(o.Rx, d.Nx)
		}
		if d.Nz > 0 {
			o.Rz = append(o.Rz, d.Nz)
		}
		if d.Np > 0 {
			o.Rq = append(o.Rq, d.Np)
		}
		if d.Nq > 0 {
			o.Rp = append(o.Rp, d.Nq)
		}
		if d.Nrx > 0 {
			o.X = append(o.X, d.Nrx)
		}
		if d.Nrz > 0 {
			o.Z = append(o.Z, d.Nrz)
		}
		if d.Nrp > 0 {
			o.Q = append(o.Q, d.Nrp)
		}
		if d.Nrq > 0 {
			o.P = append(o.P, d.Nrq)
		}
	}
	cumsum(o.X)
	cumsum(o.Z)
	cumsum(o.Q)
	cumsum(o.P)
	cumsum(o.Rx)
	cumsum(o.Rz)
	cumsum(o.Rq)
	cumsum(o.Rp)
	return
}

// cumsum converts block sizes (after a leading 0) into cumulative offsets
func cumsum(s []int) {
	for i := 1; i < len(s); i++ {
		s[i] += s[i-1]
	}
}

// last returns the final cumulative offset, i.e. the total size
func last(s []int) int { return s[len(s)-1] }

// cursor hands out the blocks of one augmented vector in order. Every block
// must be consumed exactly once per pass; violations abort, since they can
// only arise from inconsistent bookkeeping
type cursor struct {
	name  string
	parts []sym.Vec
	pos   int
}

// newCursor splits v by the cumulative offsets and positions the cursor at
// the first block
func newCursor(name string, v sym.Vec, offsets []int) *cursor {
	return &cursor{name: name, parts: sym.VertSplit(v, offsets)}
}

// next returns the current block and advances
func (o *cursor) next() sym.Vec {
	if o.pos >= len(o.parts) {
		icPanic("augmentation: cursor %q consumed past its end", o.name)
	}
	v := o.parts[o.pos]
	o.pos++
	return v
}

// rewind moves the cursor back to the first block
func (o *cursor) rewind() { o.pos = 0 }

// assertDone verifies that every block has been consumed
func (o *cursor) assertDone() {
	if o.pos != len(o.parts) {
		icPanic("augmentation: cursor %q has %d unconsumed blocks", o.name, len(o.parts)-o.pos)
	}
}

// BuildAugmented constructs the forward and backward problem callbacks of
// the augmented problem carrying nfwd forward and nadj adjoint sensitivity
// directions alongside the nondifferentiated problem, together with the
// offset sequences laying out the augmented vectors.
//
// When no backward callback is present and nfwd is zero, the original
// forward callback is returned unchanged. The returned backward callback is
// nil whenever the augmented backward problem is empty
func (o *Integrator) BuildAugmented(nfwd, nadj int) (fAug, gAug *sym.Function, offs *AugOffset, err error) {
	o.mustInit("BuildAugmented")
	if nfwd < 0 || nadj < 0 {
		err = cfgErr("negative number of sensitivity directions (%d forward, %d adjoint)", nfwd, nadj)
		return
	}
	offs = NewAugOffset(o.Dims, nfwd, nadj)

	// inputs of the augmented callbacks
	augT := sym.Sym("aug_t", 1)
	augX := sym.Sym("aug_x", last(offs.X))
	augZ := sym.Sym("aug_z", last(offs.Z))
	augP := sym.Sym("aug_p", last(offs.P))
	augRX := sym.Sym("aug_rx", last(offs.Rx))
	augRZ := sym.Sym("aug_rz", last(offs.Rz))
	augRP := sym.Sym("aug_rp", last(offs.Rp))
	zeroT := sym.Zeros(1)

	// block cursors over the augmented vectors
	xs := newCursor("aug_x", augX, offs.X)
	zs := newCursor("aug_z", augZ, offs.Z)
	ps := newCursor("aug_p", augP, offs.P)
	rxs := newCursor("aug_rx", augRX, offs.Rx)
	rzs := newCursor("aug_rz", augRZ, offs.Rz)
	rps := newCursor("aug_rp", augRP, offs.Rp)

	// output block collections
	var fOde, fAlg, fQuad, gOde, gAlg, gQuad []sym.Vec

	// forward problem and its forward sensitivities
	d, err := o.F.Derivative(nfwd, 0)
	if err != nil {
		return
	}
	fArg := make([]sym.Vec, 0, d.NumIn())
	for dir := -1; dir < nfwd; dir++ {
		tmp := make([]sym.Vec, DaeNumIn)
		if dir < 0 {
			tmp[DaeT] = augT
		} else {
			tmp[DaeT] = zeroT
		}
		if o.Nx > 0 {
			tmp[DaeX] = xs.next()
		}
		if o.Nz > 0 {
			tmp[DaeZ] = zs.next()
		}
		if o.Np > 0 {
			tmp[DaeP] = ps.next()
		}
		fArg = append(fArg, tmp...)
	}
	res := sym.Call(d, fArg)
	k := 0
	for dir := -1; dir < nfwd; dir++ {
		blk := res[k : k+DaeNumOut]
		k += DaeNumOut
		if o.Nx > 0 {
			fOde = append(fOde, blk[DaeOde])
		}
		if o.Nz > 0 {
			fAlg = append(fAlg, blk[DaeAlg])
		}
		if o.Nq > 0 {
			fQuad = append(fQuad, blk[DaeQuad])
		}
	}
	if k != len(res) {
		icPanic("augmentation: forward results of the forward callback not fully consumed")
	}

	// backward problem and its forward sensitivities
	var gArg []sym.Vec
	if o.G != nil {
		d, err = o.G.Derivative(nfwd, 0)
		if err != nil {
			return
		}
		xs.rewind()
		zs.rewind()
		ps.rewind()
		gArg = make([]sym.Vec, 0, d.NumIn())
		for dir := -1; dir < nfwd; dir++ {
			tmp := make([]sym.Vec, RdaeNumIn)
			if dir < 0 {
				tmp[RdaeT] = augT
			} else {
				tmp[RdaeT] = zeroT
			}
			if o.Nx > 0 {
				tmp[RdaeX] = xs.next()
			}
			if o.Nz > 0 {
				tmp[RdaeZ] = zs.next()
			}
			if o.Np > 0 {
				tmp[RdaeP] = ps.next()
			}
			if o.Nrx > 0 {
				tmp[RdaeRX] = rxs.next()
			}
			if o.Nrz > 0 {
				tmp[RdaeRZ] = rzs.next()
			}
			if o.Nrp > 0 {
				tmp[RdaeRP] = rps.next()
			}
			gArg = append(gArg, tmp...)
		}
		res = sym.Call(d, gArg)
		k = 0
		for dir := -1; dir < nfwd; dir++ {
			blk := res[k : k+RdaeNumOut]
			k += RdaeNumOut
			if o.Nrx > 0 {
				gOde = append(gOde, blk[RdaeOde])
			}
			if o.Nrz > 0 {
				gAlg = append(gAlg, blk[RdaeAlg])
			}
			if o.Nrq > 0 {
				gQuad = append(gQuad, blk[RdaeQuad])
			}
		}
		if k != len(res) {
			icPanic("augmentation: forward results of the backward callback not fully consumed")
		}
	}

	// adjoint directions
	if nadj > 0 {

		// adjoint of the forward problem grows the backward problem
		d, err = o.F.Derivative(0, nadj)
		if err != nil {
			return
		}
		fArg = fArg[:DaeNumIn] // keep the nondifferentiated inputs
		for dir := 0; dir < nadj; dir++ {
			tmp := make([]sym.Vec, DaeNumOut)
			if o.Nx > 0 {
				tmp[DaeOde] = rxs.next()
			}
			if o.Nz > 0 {
				tmp[DaeAlg] = rzs.next()
			}
			if o.Nq > 0 {
				tmp[DaeQuad] = rps.next()
			}
			fArg = append(fArg, tmp...)
		}
		res = sym.Call(d, fArg)
		k = DaeNumOut // skip the nondifferentiated outputs
		gOdeInd, gAlgInd, gQuadInd := len(gOde), len(gAlg), len(gQuad)
		for dir := 0; dir < nadj; dir++ {
			blk := res[k : k+DaeNumIn]
			k += DaeNumIn
			if o.Nx > 0 {
				gOde = append(gOde, blk[DaeX])
			}
			if o.Nz > 0 {
				gAlg = append(gAlg, blk[DaeZ])
			}
			if o.Np > 0 {
				gQuad = append(gQuad, blk[DaeP])
			}
		}
		if k != len(res) {
			icPanic("augmentation: adjoint results of the forward callback not fully consumed")
		}

		// adjoint of the backward problem contributes to both problems
		if o.G != nil {
			d, err = o.G.Derivative(0, nadj)
			if err != nil {
				return
			}
			gArg = gArg[:RdaeNumIn] // keep the nondifferentiated inputs
			for dir := 0; dir < nadj; dir++ {
				tmp := make([]sym.Vec, RdaeNumOut)
				if o.Nrx > 0 {
					tmp[RdaeOde] = xs.next()
				}
				if o.Nrz > 0 {
					tmp[RdaeAlg] = zs.next()
				}
				if o.Nrq > 0 {
					tmp[RdaeQuad] = ps.next()
				}
				gArg = append(gArg, tmp...)
			}

			// contributions to the backward problem, added to the adjoint
			// blocks recorded above
			res = sym.Call(d, gArg)
			k = RdaeNumOut
			for dir := 0; dir < nadj; dir++ {
				blk := res[k : k+RdaeNumIn]
				k += RdaeNumIn
				if o.Nx > 0 {
					gOde[gOdeInd] = sym.Add(gOde[gOdeInd], blk[RdaeX])
					gOdeInd++
				}
				if o.Nz > 0 {
					gAlg[gAlgInd] = sym.Add(gAlg[gAlgInd], blk[RdaeZ])
					gAlgInd++
				}
				if o.Np > 0 {
					gQuad[gQuadInd] = sym.Add(gQuad[gQuadInd], blk[RdaeP])
					gQuadInd++
				}
			}
			if k != len(res) || gOdeInd != len(gOde) || gAlgInd != len(gAlg) || gQuadInd != len(gQuad) {
				icPanic("augmentation: adjoint results of the backward callback not fully consumed")
			}

			// contributions to the forward problem: re-evaluate with the
			// backward states zeroed, removing the spurious dependency of
			// the forward problem on the backward states
			if o.Nrx > 0 {
				gArg[RdaeRX] = sym.Zeros(o.Nrx)
			}
			if o.Nrz > 0 {
				gArg[RdaeRZ] = sym.Zeros(o.Nrz)
			}
			if o.Nrp > 0 {
				gArg[RdaeRP] = sym.Zeros(o.Nrp)
			}
			res = sym.Call(d, gArg)
			k = RdaeNumOut
			for dir := 0; dir < nadj; dir++ {
				blk := res[k : k+RdaeNumIn]
				k += RdaeNumIn
				if o.Nrx > 0 {
					fOde = append(fOde, blk[RdaeRX])
				}
				if o.Nrz > 0 {
					fAlg = append(fAlg, blk[RdaeRZ])
				}
				if o.Nrp > 0 {
					fQuad = append(fQuad, blk[RdaeRP])
				}
			}
			if k != len(res) {
				icPanic("augmentation: forward contributions of the backward callback not fully consumed")
			}
		}
	}

	// assemble the augmented callbacks
	expand := o.Opts.GetBool("expand_augmented") && o.F.Expanded() && (o.G == nil || o.G.Expanded())
	if o.G == nil && nfwd == 0 {
		// the augmented forward problem coincides with the original
		fAug = o.F
	} else {
		fOut := make([]sym.Vec, DaeNumOut)
		fOut[DaeOde] = denseCat(fOde)
		fOut[DaeAlg] = denseCat(fAlg)
		fOut[DaeQuad] = denseCat(fQuad)
		fAug = sym.NewFunction("aug_f", []sym.Vec{augT, augX, augZ, augP}, fOut)
		if expand {
			fAug = fAug.Expand()
		}
	}
	if len(gOde) > 0 {
		gOut := make([]sym.Vec, RdaeNumOut)
		gOut[RdaeOde] = denseCat(gOde)
		gOut[RdaeAlg] = denseCat(gAlg)
		gOut[RdaeQuad] = denseCat(gQuad)
		gAug = sym.NewFunction("aug_g", []sym.Vec{augT, augX, augZ, augP, augRX, augRZ, augRP}, gOut)
		if expand {
			gAug = gAug.Expand()
		}
	}

	// every block of every augmented vector must have found its place
	xs.assertDone()
	zs.assertDone()
	ps.assertDone()
	rxs.assertDone()
	rzs.assertDone()
	rps.assertDone()
	return
}

// denseCat concatenates output blocks into one dense vector
func denseCat(blocks []sym.Vec) sym.Vec {
	if len(blocks) == 0 {
		return sym.Vec{}
	}
	return sym.Densify(sym.Vertcat(blocks...))
}

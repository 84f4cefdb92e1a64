// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Derivative returns a callable computing nfwd forward directional
// derivatives and nadj adjoint directional derivatives of this function,
// alongside the nondifferentiated outputs. The inputs of the new callable
// are the original inputs, followed by nfwd sets of forward seeds (shaped
// like the inputs) and nadj sets of adjoint seeds (shaped like the outputs).
// The outputs are the original outputs, followed by nfwd sets of forward
// sensitivities (shaped like the outputs) and nadj sets of adjoint
// sensitivities (shaped like the inputs)
func (o *Function) Derivative(nfwd, nadj int) (Callable, error) {
	if nfwd < 0 || nadj < 0 {
		return nil, chk.Err("sym: function %q: negative number of derivative directions (%d forward, %d adjoint)", o.name, nfwd, nadj)
	}
	if nfwd == 0 && nadj == 0 {
		return o, nil
	}
	return &derivative{base: o, nfwd: nfwd, nadj: nadj}, nil
}

// derivative implements forward and reverse mode differentiation of a
// function by propagating numeric seeds through its expression graph
type derivative struct {
	base       *Function
	nfwd, nadj int
}

func (o *derivative) Name() string {
	return io.Sf("%s_fwd%d_adj%d", o.base.name, o.nfwd, o.nadj)
}

func (o *derivative) NumIn() int {
	return (1+o.nfwd)*o.base.NumIn() + o.nadj*o.base.NumOut()
}

func (o *derivative) NumOut() int {
	return (1+o.nfwd)*o.base.NumOut() + o.nadj*o.base.NumIn()
}

func (o *derivative) InSize(i int) int {
	ni, no := o.base.NumIn(), o.base.NumOut()
	if i < (1+o.nfwd)*ni {
		return o.base.InSize(i % ni)
	}
	return o.base.OutSize((i - (1+o.nfwd)*ni) % no)
}

func (o *derivative) OutSize(i int) int {
	ni, no := o.base.NumIn(), o.base.NumOut()
	if i < (1+o.nfwd)*no {
		return o.base.OutSize(i % no)
	}
	return o.base.InSize((i - (1+o.nfwd)*no) % ni)
}

// Derivative composes derivative operators by differentiating the base
// function with the combined number of directions
func (o *derivative) Derivative(nfwd, nadj int) (Callable, error) {
	if nfwd == 0 && nadj == 0 {
		return o, nil
	}
	return nil, chk.Err("sym: cannot differentiate the derivative operator %q again", o.Name())
}

// Eval computes the nondifferentiated outputs and the requested directional
// derivatives
func (o *derivative) Eval(in [][]float64) (out [][]float64, err error) {
	ni, no := o.base.NumIn(), o.base.NumOut()
	if len(in) != o.NumIn() {
		return nil, chk.Err("sym: %q: wrong number of inputs: %d (expecting %d)", o.Name(), len(in), o.NumIn())
	}
	for i := range in {
		if len(in[i]) != o.InSize(i) {
			return nil, chk.Err("sym: %q: input %d has length %d, expecting %d", o.Name(), i, len(in[i]), o.InSize(i))
		}
	}

	// nondifferentiated evaluation
	val, order, err := o.base.evalNodes(in[:ni])
	if err != nil {
		return
	}
	out = make([][]float64, 0, o.NumOut())
	for _, v := range o.base.out {
		res := make([]float64, v.Len())
		if v.node != nil {
			copy(res, val[v.node])
		}
		out = append(out, res)
	}

	// forward sweeps, one per direction
	for dir := 0; dir < o.nfwd; dir++ {
		seeds := in[(1+dir)*ni : (2+dir)*ni]
		sens, err := o.base.fwdSweep(val, order, seeds)
		if err != nil {
			return nil, err
		}
		out = append(out, sens...)
	}

	// adjoint sweeps, one per direction
	for dir := 0; dir < o.nadj; dir++ {
		seeds := in[(1+o.nfwd)*ni+dir*no : (1+o.nfwd)*ni+(dir+1)*no]
		sens, err := o.base.adjSweep(val, order, seeds)
		if err != nil {
			return nil, err
		}
		out = append(out, sens...)
	}
	return
}

// fwdSweep propagates one set of input tangents through the graph
func (o *Function) fwdSweep(val map[*node][]float64, order []*node, seeds [][]float64) (sens [][]float64, err error) {
	tan := make(map[*node][]float64, len(order))
	cache := make(map[*callSite][][]float64)
	for _, nd := range order {
		switch nd.op {
		case opSym:
			tan[nd] = seeds[o.pos[nd]]
		case opConst:
			tan[nd] = make([]float64, nd.n)
		case opAdd:
			ta, tb := tan[nd.args[0]], tan[nd.args[1]]
			t := make([]float64, nd.n)
			for i := range t {
				t[i] = ta[i] + tb[i]
			}
			tan[nd] = t
		case opSub:
			ta, tb := tan[nd.args[0]], tan[nd.args[1]]
			t := make([]float64, nd.n)
			for i := range t {
				t[i] = ta[i] - tb[i]
			}
			tan[nd] = t
		case opMul:
			a, b := val[nd.args[0]], val[nd.args[1]]
			ta, tb := tan[nd.args[0]], tan[nd.args[1]]
			t := make([]float64, nd.n)
			for i := range t {
				t[i] = a[i]*tb[i] + b[i]*ta[i]
			}
			tan[nd] = t
		case opNeg:
			ta := tan[nd.args[0]]
			t := make([]float64, nd.n)
			for i := range t {
				t[i] = -ta[i]
			}
			tan[nd] = t
		case opVertcat:
			t := make([]float64, 0, nd.n)
			for _, a := range nd.args {
				t = append(t, tan[a]...)
			}
			tan[nd] = t
		case opSplit:
			tan[nd] = tan[nd.args[0]][nd.lo : nd.lo+nd.n]
		case opDensify:
			tan[nd] = tan[nd.args[0]]
		case opCall:
			res, ok := cache[nd.site]
			if !ok {
				d, ok2 := nd.site.fcn.(Derivable)
				if !ok2 {
					return nil, chk.Err("sym: callable %q cannot provide forward derivatives", nd.site.fcn.Name())
				}
				df, e := d.Derivative(1, 0)
				if e != nil {
					return nil, e
				}
				cin := make([][]float64, 0, 2*len(nd.site.args))
				for _, a := range nd.site.args {
					cin = append(cin, valOrEmpty(val, a))
				}
				for _, a := range nd.site.args {
					cin = append(cin, valOrEmpty(tan, a))
				}
				full, e := df.Eval(cin)
				if e != nil {
					return nil, e
				}
				res = full[nd.site.fcn.NumOut():]
				cache[nd.site] = res
			}
			tan[nd] = res[nd.idx]
		}
	}
	sens = make([][]float64, len(o.out))
	for i, v := range o.out {
		sens[i] = make([]float64, v.Len())
		if v.node != nil {
			copy(sens[i], tan[v.node])
		}
	}
	return
}

// adjSweep propagates one set of output adjoint seeds backwards through the
// graph, accumulating adjoints of the inputs
func (o *Function) adjSweep(val map[*node][]float64, order []*node, seeds [][]float64) (sens [][]float64, err error) {
	adj := make(map[*node][]float64, len(order))
	bar := func(nd *node) []float64 {
		b, ok := adj[nd]
		if !ok {
			b = make([]float64, nd.n)
			adj[nd] = b
		}
		return b
	}

	// count the graph output nodes of every call site so that the adjoint
	// call is made only when all of them have received their contributions
	pending := make(map[*callSite]int)
	for _, nd := range order {
		if nd.op == opCall {
			pending[nd.site]++
		}
	}

	// seed the function outputs; repeated output nodes accumulate
	for i, v := range o.out {
		if v.node != nil {
			b := bar(v.node)
			for j := range b {
				b[j] += seeds[i][j]
			}
		}
	}

	sens = make([][]float64, len(o.in))
	for i, v := range o.in {
		sens[i] = make([]float64, v.Len())
	}

	for k := len(order) - 1; k >= 0; k-- {
		nd := order[k]
		a := adj[nd]
		if a == nil && nd.op != opCall {
			continue
		}
		switch nd.op {
		case opSym:
			s := sens[o.pos[nd]]
			for i := range s {
				s[i] += a[i]
			}
		case opConst:
			// no dependency
		case opAdd:
			ba, bb := bar(nd.args[0]), bar(nd.args[1])
			for i := range a {
				ba[i] += a[i]
				bb[i] += a[i]
			}
		case opSub:
			ba, bb := bar(nd.args[0]), bar(nd.args[1])
			for i := range a {
				ba[i] += a[i]
				bb[i] -= a[i]
			}
		case opMul:
			va, vb := val[nd.args[0]], val[nd.args[1]]
			ba, bb := bar(nd.args[0]), bar(nd.args[1])
			for i := range a {
				ba[i] += a[i] * vb[i]
				bb[i] += a[i] * va[i]
			}
		case opNeg:
			ba := bar(nd.args[0])
			for i := range a {
				ba[i] -= a[i]
			}
		case opVertcat:
			off := 0
			for _, arg := range nd.args {
				ba := bar(arg)
				for i := range ba {
					ba[i] += a[off]
					off++
				}
			}
		case opSplit:
			ba := bar(nd.args[0])
			for i := range a {
				ba[nd.lo+i] += a[i]
			}
		case opDensify:
			ba := bar(nd.args[0])
			for i := range a {
				ba[i] += a[i]
			}
		case opCall:
			pending[nd.site]--
			if pending[nd.site] > 0 {
				continue
			}
			d, ok := nd.site.fcn.(Derivable)
			if !ok {
				return nil, chk.Err("sym: callable %q cannot provide adjoint derivatives", nd.site.fcn.Name())
			}
			df, e := d.Derivative(0, 1)
			if e != nil {
				return nil, e
			}
			fcn := nd.site.fcn
			cin := make([][]float64, 0, fcn.NumIn()+fcn.NumOut())
			for _, arg := range nd.site.args {
				cin = append(cin, valOrEmpty(val, arg))
			}
			for i := 0; i < fcn.NumOut(); i++ {
				cin = append(cin, make([]float64, fcn.OutSize(i)))
			}
			// install the accumulated adjoints of all outputs of this site
			for _, other := range order {
				if other.op == opCall && other.site == nd.site {
					if b, ok := adj[other]; ok {
						copy(cin[fcn.NumIn()+other.idx], b)
					}
				}
			}
			full, e := df.Eval(cin)
			if e != nil {
				return nil, e
			}
			isens := full[fcn.NumOut():]
			for i, arg := range nd.site.args {
				if arg == nil || len(isens[i]) == 0 {
					continue
				}
				ba := bar(arg)
				for j := range ba {
					ba[j] += isens[i][j]
				}
			}
		}
	}
	return
}

// valOrEmpty fetches the value of a possibly nil (zero-length) node
func valOrEmpty(m map[*node][]float64, nd *node) []float64 {
	if nd == nil {
		return nil
	}
	return m[nd]
}

// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Callable is anything that can be embedded into an expression graph as a
// function call: it reports its signature and evaluates numerically
type Callable interface {
	Name() string
	NumIn() int
	NumOut() int
	InSize(i int) int
	OutSize(i int) int
	Eval(in [][]float64) (out [][]float64, err error)
}

// Derivable is implemented by callables that can construct derivative
// callables of themselves
type Derivable interface {
	Callable
	Derivative(nfwd, nadj int) (Callable, error)
}

// Function is a vector-valued symbolic function: named inputs (symbolic
// primitives) mapped to output expressions
type Function struct {
	name string
	in   []Vec
	out  []Vec
	pos  map[*node]int // input node => input index
}

// NewFunction creates a new function. Every input must be a symbolic
// primitive and every primitive reachable from the outputs must be listed
// among the inputs. Outputs may be empty vectors
func NewFunction(name string, in, out []Vec) (o *Function) {
	o = &Function{name: name, in: in, out: out, pos: make(map[*node]int)}
	for i, v := range in {
		if v.node == nil {
			if v.Len() == 0 {
				// allow the empty vector as a zero-length placeholder input
				in[i] = Sym(io.Sf("%s_in%d", name, i), 0)
				o.pos[in[i].node] = i
				continue
			}
			chk.Panic("sym: function %q: input %d is not a symbolic primitive", name, i)
		}
		if v.node.op != opSym {
			chk.Panic("sym: function %q: input %d is not a symbolic primitive", name, i)
		}
		o.pos[v.node] = i
	}
	for _, nd := range topo(nodesOf(out)) {
		if nd.op == opSym {
			if _, ok := o.pos[nd]; !ok {
				chk.Panic("sym: function %q: free variable %q is not among the inputs", name, nd.name)
			}
		}
	}
	return
}

// nodesOf extracts the non-nil root nodes of a set of vectors
func nodesOf(vs []Vec) (nds []*node) {
	for _, v := range vs {
		if v.node != nil {
			nds = append(nds, v.node)
		}
	}
	return
}

// Name returns the function name
func (o *Function) Name() string { return o.name }

// NumIn returns the number of inputs
func (o *Function) NumIn() int { return len(o.in) }

// NumOut returns the number of outputs
func (o *Function) NumOut() int { return len(o.out) }

// InSize returns the length of input i
func (o *Function) InSize(i int) int { return o.in[i].Len() }

// OutSize returns the length of output i
func (o *Function) OutSize(i int) int { return o.out[i].Len() }

// In returns the symbolic primitive bound to input i
func (o *Function) In(i int) Vec { return o.in[i] }

// Out returns the expression bound to output i
func (o *Function) Out(i int) Vec { return o.out[i] }

// Expanded tells whether the graph contains no embedded function calls
func (o *Function) Expanded() bool {
	for _, nd := range topo(nodesOf(o.out)) {
		if nd.op == opCall {
			return false
		}
	}
	return true
}

// checkEvalInput verifies lengths of numeric input data
func (o *Function) checkEvalInput(in [][]float64) error {
	if len(in) != len(o.in) {
		return chk.Err("sym: function %q: wrong number of inputs: %d (expecting %d)", o.name, len(in), len(o.in))
	}
	for i := range in {
		if len(in[i]) != o.in[i].Len() {
			return chk.Err("sym: function %q: input %d has length %d, expecting %d", o.name, i, len(in[i]), o.in[i].Len())
		}
	}
	return nil
}

// evalNodes computes the numeric value of every node reachable from the
// outputs and returns the values together with the topological order used
func (o *Function) evalNodes(in [][]float64) (val map[*node][]float64, order []*node, err error) {
	if err = o.checkEvalInput(in); err != nil {
		return
	}
	order = topo(nodesOf(o.out))
	val = make(map[*node][]float64, len(order))
	cache := make(map[*callSite][][]float64)
	for _, nd := range order {
		switch nd.op {
		case opSym:
			val[nd] = in[o.pos[nd]]
		case opConst:
			val[nd] = nd.val
		case opAdd:
			a, b := val[nd.args[0]], val[nd.args[1]]
			v := make([]float64, nd.n)
			for i := range v {
				v[i] = a[i] + b[i]
			}
			val[nd] = v
		case opSub:
			a, b := val[nd.args[0]], val[nd.args[1]]
			v := make([]float64, nd.n)
			for i := range v {
				v[i] = a[i] - b[i]
			}
			val[nd] = v
		case opMul:
			a, b := val[nd.args[0]], val[nd.args[1]]
			v := make([]float64, nd.n)
			for i := range v {
				v[i] = a[i] * b[i]
			}
			val[nd] = v
		case opNeg:
			a := val[nd.args[0]]
			v := make([]float64, nd.n)
			for i := range v {
				v[i] = -a[i]
			}
			val[nd] = v
		case opVertcat:
			v := make([]float64, 0, nd.n)
			for _, a := range nd.args {
				v = append(v, val[a]...)
			}
			val[nd] = v
		case opSplit:
			val[nd] = val[nd.args[0]][nd.lo : nd.lo+nd.n]
		case opDensify:
			val[nd] = val[nd.args[0]]
		case opCall:
			res, ok := cache[nd.site]
			if !ok {
				cin := make([][]float64, len(nd.site.args))
				for i, a := range nd.site.args {
					if a != nil {
						cin[i] = val[a]
					}
				}
				res, err = nd.site.fcn.Eval(cin)
				if err != nil {
					return
				}
				cache[nd.site] = res
			}
			val[nd] = res[nd.idx]
		}
	}
	return
}

// Eval evaluates the function numerically. The returned slices are freshly
// allocated and the inputs are never modified
func (o *Function) Eval(in [][]float64) (out [][]float64, err error) {
	val, _, err := o.evalNodes(in)
	if err != nil {
		return
	}
	out = make([][]float64, len(o.out))
	for i, v := range o.out {
		out[i] = make([]float64, v.Len())
		if v.node != nil {
			copy(out[i], val[v.node])
		}
	}
	return
}

// Expand returns an equivalent function with all embedded calls to plain
// functions inlined. Calls to opaque callables (e.g. derivative operators or
// integrators) are kept as calls with rewritten arguments
func (o *Function) Expand() *Function {
	memo := make(map[*node]*node)
	sites := make(map[*callSite]*callSite)
	var rw func(nd *node) *node
	rw = func(nd *node) *node {
		if nd == nil {
			return nil
		}
		if m, ok := memo[nd]; ok {
			return m
		}
		var nn *node
		switch nd.op {
		case opSym, opConst:
			nn = nd
		case opCall:
			if f, ok := nd.site.fcn.(*Function); ok {
				fe := f.Expand()
				bind := make(map[*node]*node)
				for i, iv := range fe.in {
					bind[iv.node] = rw(nd.site.args[i])
				}
				nn = subst(fe.out[nd.idx].node, bind)
			} else {
				site, ok := sites[nd.site]
				if !ok {
					site = &callSite{fcn: nd.site.fcn, args: make([]*node, len(nd.site.args))}
					for i, a := range nd.site.args {
						site.args[i] = rw(a)
					}
					sites[nd.site] = site
				}
				nn = &node{op: opCall, n: nd.n, idx: nd.idx, site: site}
			}
		default:
			nn = &node{op: nd.op, n: nd.n, lo: nd.lo, args: make([]*node, len(nd.args))}
			for i, a := range nd.args {
				nn.args[i] = rw(a)
			}
		}
		memo[nd] = nn
		return nn
	}
	out := make([]Vec, len(o.out))
	for i, v := range o.out {
		out[i] = Vec{rw(v.node)}
	}
	return NewFunction(o.name, o.in, out)
}

// subst clones the call-free graph rooted at nd, replacing the primitives
// listed in bind by their replacements
func subst(nd *node, bind map[*node]*node) *node {
	memo := make(map[*node]*node)
	var rw func(nd *node) *node
	rw = func(nd *node) *node {
		if nd == nil {
			return nil
		}
		if m, ok := memo[nd]; ok {
			return m
		}
		var nn *node
		switch nd.op {
		case opSym:
			b, ok := bind[nd]
			if !ok {
				chk.Panic("sym: substitution: unbound primitive %q", nd.name)
			}
			nn = b
		case opConst:
			nn = nd
		case opCall:
			chk.Panic("sym: substitution cannot handle embedded calls")
		default:
			nn = &node{op: nd.op, n: nd.n, lo: nd.lo, args: make([]*node, len(nd.args))}
			for i, a := range nd.args {
				nn.args[i] = rw(a)
			}
		}
		memo[nd] = nn
		return nn
	}
	return rw(nd)
}

// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sym implements symbolic expression graphs for vector-valued
// functions: shared immutable nodes forming a DAG, function objects with
// numeric evaluation, derivative operators and bit-vector dependency
// propagation
package sym

import "github.com/cpmech/gosl/chk"

// op defines the kind of one graph node
type op int

const (
	opSym     op = iota // symbolic primitive (function input)
	opConst             // constant vector
	opAdd               // elementwise addition
	opSub               // elementwise subtraction
	opMul               // elementwise multiplication
	opNeg               // elementwise negation
	opVertcat           // vertical concatenation
	opSplit             // one block of a vertical split
	opDensify           // densification (structural no-op on dense vectors)
	opCall              // one output of an embedded function call
)

// node is one shared immutable vertex of an expression DAG. Nodes are only
// reachable through Vec handles; they are never mutated after creation
type node struct {
	op   op
	n    int       // vector length
	name string    // opSym: primitive name
	val  []float64 // opConst: values
	args []*node   // operands
	lo   int       // opSplit: start offset within args[0]
	idx  int       // opCall: output index within the call site
	site *callSite // opCall: shared call bookkeeping
}

// callSite groups the output nodes of one embedded function call so that the
// callee is evaluated exactly once per evaluation pass
type callSite struct {
	fcn  Callable
	args []*node
}

// Vec is a handle to a symbolic vector. The zero value is the empty vector
type Vec struct {
	node *node
}

// Len returns the vector length
func (o Vec) Len() int {
	if o.node == nil {
		return 0
	}
	return o.node.n
}

// IsEmpty tells whether this vector has zero length
func (o Vec) IsEmpty() bool { return o.Len() == 0 }

// Sym returns a new symbolic primitive with length n (n may be zero)
func Sym(name string, n int) Vec {
	if n < 0 {
		chk.Panic("sym: cannot create symbolic primitive %q with negative length %d", name, n)
	}
	return Vec{&node{op: opSym, n: n, name: name}}
}

// Zeros returns a constant vector of zeros with length n
func Zeros(n int) Vec {
	return NewConst(make([]float64, n))
}

// NewConst returns a constant vector holding a copy of v
func NewConst(v []float64) Vec {
	c := make([]float64, len(v))
	copy(c, v)
	return Vec{&node{op: opConst, n: len(c), val: c}}
}

// binop builds an elementwise binary operation; both operands must have the
// same length
func binop(kind op, what string, a, b Vec) Vec {
	if a.Len() != b.Len() {
		chk.Panic("sym: %s requires equal lengths; got %d and %d", what, a.Len(), b.Len())
	}
	if a.Len() == 0 {
		return Vec{}
	}
	return Vec{&node{op: kind, n: a.Len(), args: []*node{a.node, b.node}}}
}

// Add returns the elementwise sum a + b
func Add(a, b Vec) Vec { return binop(opAdd, "addition", a, b) }

// Sub returns the elementwise difference a - b
func Sub(a, b Vec) Vec { return binop(opSub, "subtraction", a, b) }

// Mul returns the elementwise product a * b
func Mul(a, b Vec) Vec { return binop(opMul, "multiplication", a, b) }

// Neg returns the elementwise negation -a
func Neg(a Vec) Vec {
	if a.Len() == 0 {
		return Vec{}
	}
	return Vec{&node{op: opNeg, n: a.Len(), args: []*node{a.node}}}
}

// Vertcat concatenates vectors vertically. Empty vectors are skipped; the
// concatenation of no (or only empty) vectors is the empty vector
func Vertcat(vs ...Vec) Vec {
	var args []*node
	n := 0
	for _, v := range vs {
		if v.Len() == 0 {
			continue
		}
		args = append(args, v.node)
		n += v.Len()
	}
	if len(args) == 0 {
		return Vec{}
	}
	if len(args) == 1 {
		return Vec{args[0]}
	}
	return Vec{&node{op: opVertcat, n: n, args: args}}
}

// VertSplit splits v into blocks delimited by the cumulative offsets, which
// must start at 0, be non-decreasing and end at v.Len(). The number of
// returned blocks is len(offsets)-1
func VertSplit(v Vec, offsets []int) []Vec {
	if len(offsets) == 0 || offsets[0] != 0 {
		chk.Panic("sym: vertical split offsets must start at 0")
	}
	if offsets[len(offsets)-1] != v.Len() {
		chk.Panic("sym: vertical split offsets must end at the vector length; got %d, expecting %d", offsets[len(offsets)-1], v.Len())
	}
	parts := make([]Vec, len(offsets)-1)
	for i := range parts {
		lo, hi := offsets[i], offsets[i+1]
		if hi < lo {
			chk.Panic("sym: vertical split offsets must be non-decreasing")
		}
		if hi == lo {
			parts[i] = Vec{}
			continue
		}
		parts[i] = Vec{&node{op: opSplit, n: hi - lo, args: []*node{v.node}, lo: lo}}
	}
	return parts
}

// Densify marks v as dense. Vectors are dense by construction, so this is a
// structural marker kept for parity with sparse storage schemes
func Densify(v Vec) Vec {
	if v.Len() == 0 {
		return Vec{}
	}
	return Vec{&node{op: opDensify, n: v.Len(), args: []*node{v.node}}}
}

// Call embeds a call to fcn into the expression graph and returns one vector
// per output of fcn. Argument lengths must match the input sizes of fcn
func Call(fcn Callable, args []Vec) []Vec {
	if len(args) != fcn.NumIn() {
		chk.Panic("sym: call to %q needs %d arguments; got %d", fcn.Name(), fcn.NumIn(), len(args))
	}
	an := make([]*node, len(args))
	for i, a := range args {
		if a.Len() != fcn.InSize(i) {
			chk.Panic("sym: call to %q: argument %d has length %d, expecting %d", fcn.Name(), i, a.Len(), fcn.InSize(i))
		}
		an[i] = a.node
	}
	site := &callSite{fcn: fcn, args: an}
	out := make([]Vec, fcn.NumOut())
	for i := range out {
		if fcn.OutSize(i) == 0 {
			out[i] = Vec{}
			continue
		}
		out[i] = Vec{&node{op: opCall, n: fcn.OutSize(i), idx: i, site: site}}
	}
	return out
}

// topo returns a topological ordering (operands first) of all nodes
// reachable from the given roots
func topo(roots []*node) (order []*node) {
	seen := make(map[*node]bool)
	var visit func(nd *node)
	visit = func(nd *node) {
		if nd == nil || seen[nd] {
			return
		}
		seen[nd] = true
		for _, a := range nd.args {
			visit(a)
		}
		if nd.site != nil {
			for _, a := range nd.site.args {
				visit(a)
			}
		}
		order = append(order, nd)
	}
	for _, r := range roots {
		visit(r)
	}
	return
}

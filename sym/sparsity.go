// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// Bvec is a bit-vector dependency marker: bit b of component i tells whether
// component i structurally depends on seed b. Up to 64 seeds are propagated
// per pass
type Bvec uint64

// checkBitsInput verifies the shape of bit-vector input data
func (o *Function) checkBitsInput(in [][]Bvec, sizes func(i int) int, num int, what string) error {
	if len(in) != num {
		return chk.Err("sym: function %q: wrong number of %s bit-vectors: %d (expecting %d)", o.name, what, len(in), num)
	}
	for i := range in {
		if len(in[i]) != sizes(i) {
			return chk.Err("sym: function %q: %s bit-vector %d has length %d, expecting %d", o.name, what, i, len(in[i]), sizes(i))
		}
	}
	return nil
}

// SpForward propagates input dependency bits forward to the outputs. Calls
// to plain functions are propagated through their graphs; calls to opaque
// callables are treated conservatively, with every output depending on every
// input bit
func (o *Function) SpForward(in [][]Bvec) (out [][]Bvec, err error) {
	if err = o.checkBitsInput(in, o.InSize, o.NumIn(), "input"); err != nil {
		return
	}
	bits := make(map[*node][]Bvec)
	cache := make(map[*callSite][][]Bvec)
	for _, nd := range topo(nodesOf(o.out)) {
		switch nd.op {
		case opSym:
			bits[nd] = in[o.pos[nd]]
		case opConst:
			bits[nd] = make([]Bvec, nd.n)
		case opAdd, opSub, opMul:
			a, b := bits[nd.args[0]], bits[nd.args[1]]
			v := make([]Bvec, nd.n)
			for i := range v {
				v[i] = a[i] | b[i]
			}
			bits[nd] = v
		case opNeg, opDensify:
			bits[nd] = bits[nd.args[0]]
		case opVertcat:
			v := make([]Bvec, 0, nd.n)
			for _, a := range nd.args {
				v = append(v, bits[a]...)
			}
			bits[nd] = v
		case opSplit:
			bits[nd] = bits[nd.args[0]][nd.lo : nd.lo+nd.n]
		case opCall:
			res, ok := cache[nd.site]
			if !ok {
				cin := make([][]Bvec, len(nd.site.args))
				for i, a := range nd.site.args {
					if a == nil {
						cin[i] = nil
						continue
					}
					cin[i] = bits[a]
				}
				if f, ok2 := nd.site.fcn.(*Function); ok2 {
					res, err = f.SpForward(cin)
					if err != nil {
						return
					}
				} else {
					var all Bvec
					for i := range cin {
						for _, b := range cin[i] {
							all |= b
						}
					}
					res = make([][]Bvec, nd.site.fcn.NumOut())
					for i := range res {
						res[i] = make([]Bvec, nd.site.fcn.OutSize(i))
						for j := range res[i] {
							res[i][j] = all
						}
					}
				}
				cache[nd.site] = res
			}
			bits[nd] = res[nd.idx]
		}
	}
	out = make([][]Bvec, len(o.out))
	for i, v := range o.out {
		out[i] = make([]Bvec, v.Len())
		if v.node != nil {
			copy(out[i], bits[v.node])
		}
	}
	return
}

// SpReverse propagates output dependency bits backwards to the inputs,
// accumulating with bitwise or. Opaque callables are treated conservatively
func (o *Function) SpReverse(out [][]Bvec) (in [][]Bvec, err error) {
	if err = o.checkBitsInput(out, o.OutSize, o.NumOut(), "output"); err != nil {
		return
	}
	bits := make(map[*node][]Bvec)
	bar := func(nd *node) []Bvec {
		b, ok := bits[nd]
		if !ok {
			b = make([]Bvec, nd.n)
			bits[nd] = b
		}
		return b
	}
	order := topo(nodesOf(o.out))
	pending := make(map[*callSite]int)
	for _, nd := range order {
		if nd.op == opCall {
			pending[nd.site]++
		}
	}
	for i, v := range o.out {
		if v.node != nil {
			b := bar(v.node)
			for j := range b {
				b[j] |= out[i][j]
			}
		}
	}
	in = make([][]Bvec, len(o.in))
	for i, v := range o.in {
		in[i] = make([]Bvec, v.Len())
	}
	for k := len(order) - 1; k >= 0; k-- {
		nd := order[k]
		a := bits[nd]
		if a == nil && nd.op != opCall {
			continue
		}
		switch nd.op {
		case opSym:
			s := in[o.pos[nd]]
			for i := range s {
				s[i] |= a[i]
			}
		case opConst:
			// no dependency
		case opAdd, opSub, opMul:
			ba, bb := bar(nd.args[0]), bar(nd.args[1])
			for i := range a {
				ba[i] |= a[i]
				bb[i] |= a[i]
			}
		case opNeg, opDensify:
			ba := bar(nd.args[0])
			for i := range a {
				ba[i] |= a[i]
			}
		case opVertcat:
			off := 0
			for _, arg := range nd.args {
				ba := bar(arg)
				for i := range ba {
					ba[i] |= a[off]
					off++
				}
			}
		case opSplit:
			ba := bar(nd.args[0])
			for i := range a {
				ba[nd.lo+i] |= a[i]
			}
		case opCall:
			pending[nd.site]--
			if pending[nd.site] > 0 {
				continue
			}
			fcn := nd.site.fcn
			oseed := make([][]Bvec, fcn.NumOut())
			for i := range oseed {
				oseed[i] = make([]Bvec, fcn.OutSize(i))
			}
			for _, other := range order {
				if other.op == opCall && other.site == nd.site {
					if b, ok := bits[other]; ok {
						copy(oseed[other.idx], b)
					}
				}
			}
			var iseed [][]Bvec
			if f, ok := fcn.(*Function); ok {
				iseed, err = f.SpReverse(oseed)
				if err != nil {
					return
				}
			} else {
				var all Bvec
				for i := range oseed {
					for _, b := range oseed[i] {
						all |= b
					}
				}
				iseed = make([][]Bvec, fcn.NumIn())
				for i := range iseed {
					iseed[i] = make([]Bvec, fcn.InSize(i))
					for j := range iseed[i] {
						iseed[i][j] = all
					}
				}
			}
			for i, arg := range nd.site.args {
				if arg == nil {
					continue
				}
				ba := bar(arg)
				for j := range ba {
					ba[j] |= iseed[i][j]
				}
			}
		}
	}
	return
}

// JacSparsity computes the structural sparsity pattern of the Jacobian of
// output oind with respect to input iind, by forward propagation of identity
// seed stripes, 64 columns at a time
func (o *Function) JacSparsity(iind, oind int) (p *Pattern) {
	m, n := o.OutSize(oind), o.InSize(iind)
	p = NewPattern(m, n)
	for col0 := 0; col0 < n; col0 += 64 {
		in := make([][]Bvec, o.NumIn())
		for i := range in {
			in[i] = make([]Bvec, o.InSize(i))
		}
		for b := 0; b < 64 && col0+b < n; b++ {
			in[iind][col0+b] = 1 << uint(b)
		}
		out, err := o.SpForward(in)
		if err != nil {
			chk.Panic("sym: function %q: sparsity propagation failed: %v", o.name, err)
		}
		for i := 0; i < m; i++ {
			w := out[oind][i]
			for b := 0; b < 64 && col0+b < n; b++ {
				if w&(1<<uint(b)) != 0 {
					p.Set(i, col0+b)
				}
			}
		}
	}
	return
}

// Pattern is a structural sparsity pattern: the set of (row, column) pairs
// that may be nonzero
type Pattern struct {
	m, n int
	rows [][]int // sorted column indices per row
}

// NewPattern returns an empty m-by-n pattern
func NewPattern(m, n int) *Pattern {
	return &Pattern{m: m, n: n, rows: make([][]int, m)}
}

// Size returns the dimensions of the pattern
func (o *Pattern) Size() (m, n int) { return o.m, o.n }

// Nnz returns the number of structural nonzeros
func (o *Pattern) Nnz() (nnz int) {
	for _, r := range o.rows {
		nnz += len(r)
	}
	return
}

// Set marks entry (i, j) as structurally nonzero
func (o *Pattern) Set(i, j int) {
	if i < 0 || i >= o.m || j < 0 || j >= o.n {
		chk.Panic("pattern entry (%d,%d) is out of the %d-by-%d bounds", i, j, o.m, o.n)
	}
	r := o.rows[i]
	k := sort.SearchInts(r, j)
	if k < len(r) && r[k] == j {
		return
	}
	r = append(r, 0)
	copy(r[k+1:], r[k:])
	r[k] = j
	o.rows[i] = r
}

// Has tells whether entry (i, j) is structurally nonzero
func (o *Pattern) Has(i, j int) bool {
	r := o.rows[i]
	k := sort.SearchInts(r, j)
	return k < len(r) && r[k] == j
}

// Row returns the sorted column indices of row i. The slice must not be
// modified
func (o *Pattern) Row(i int) []int { return o.rows[i] }

// ToDense returns a dense 0/1 matrix representation
func (o *Pattern) ToDense() (res [][]float64) {
	res = utl.Alloc(o.m, o.n)
	for i, r := range o.rows {
		for _, j := range r {
			res[i][j] = 1
		}
	}
	return
}

// PatternDiag returns the n-by-n identity pattern
func PatternDiag(n int) (p *Pattern) {
	p = NewPattern(n, n)
	for i := 0; i < n; i++ {
		p.rows[i] = []int{i}
	}
	return
}

// PatternUnion returns the entrywise union of two patterns with equal
// dimensions
func PatternUnion(a, b *Pattern) (p *Pattern) {
	if a.m != b.m || a.n != b.n {
		chk.Panic("pattern union requires equal dimensions; got %d-by-%d and %d-by-%d", a.m, a.n, b.m, b.n)
	}
	p = NewPattern(a.m, a.n)
	for i := 0; i < a.m; i++ {
		for _, j := range a.rows[i] {
			p.Set(i, j)
		}
		for _, j := range b.rows[i] {
			p.Set(i, j)
		}
	}
	return
}

// PatternHorzcat concatenates two patterns side by side
func PatternHorzcat(a, b *Pattern) (p *Pattern) {
	if a.m != b.m {
		chk.Panic("horizontal pattern concatenation requires equal row counts; got %d and %d", a.m, b.m)
	}
	p = NewPattern(a.m, a.n+b.n)
	for i := 0; i < a.m; i++ {
		for _, j := range a.rows[i] {
			p.Set(i, j)
		}
		for _, j := range b.rows[i] {
			p.Set(i, a.n+j)
		}
	}
	return
}

// PatternVertcat stacks two patterns on top of each other
func PatternVertcat(a, b *Pattern) (p *Pattern) {
	if a.n != b.n {
		chk.Panic("vertical pattern concatenation requires equal column counts; got %d and %d", a.n, b.n)
	}
	p = NewPattern(a.m+b.m, a.n)
	for i := 0; i < a.m; i++ {
		for _, j := range a.rows[i] {
			p.Set(i, j)
		}
	}
	for i := 0; i < b.m; i++ {
		for _, j := range b.rows[i] {
			p.Set(a.m+i, j)
		}
	}
	return
}

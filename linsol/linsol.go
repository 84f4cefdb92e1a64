// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package linsol implements a structural linear solver: given the sparsity
// pattern of a square system matrix, it resolves dependency bit-vectors
// through the implicit relation defined by the matrix
package linsol

import (
	"github.com/cpmech/gosl/chk"

	"github.com/Fleurinck/casadi/sym"
)

// Solver propagates dependencies through a linear system with a fixed
// structural sparsity pattern
type Solver struct {
	n    int
	rows [][]int // column indices per row
	cols [][]int // row indices per column
}

// New creates a structural solver from the pattern of the system matrix,
// which must be square
func New(p *sym.Pattern) (o *Solver, err error) {
	m, n := p.Size()
	if m != n {
		return nil, chk.Err("linsol: system matrix must be square; got %d-by-%d", m, n)
	}
	o = &Solver{n: n, rows: make([][]int, n), cols: make([][]int, n)}
	for i := 0; i < n; i++ {
		r := p.Row(i)
		o.rows[i] = make([]int, len(r))
		copy(o.rows[i], r)
		for _, j := range r {
			o.cols[j] = append(o.cols[j], i)
		}
	}
	return
}

// N returns the system dimension
func (o *Solver) N() int { return o.n }

// SpSolve computes the dependency bits of the solution of a structural
// linear solve: dst receives the bits of src closed under the coupling
// defined by the matrix pattern (or its transpose). dst and src may be the
// same slice. The operation is a monotone fixpoint and therefore idempotent
func (o *Solver) SpSolve(dst, src []sym.Bvec, transposed bool) {
	if len(dst) != o.n || len(src) != o.n {
		chk.Panic("linsol: bit-vectors have lengths %d and %d, expecting %d", len(dst), len(src), o.n)
	}
	copy(dst, src)
	adj := o.rows
	if transposed {
		adj = o.cols
	}
	for changed := true; changed; {
		changed = false
		for i := 0; i < o.n; i++ {
			v := dst[i]
			for _, j := range adj[i] {
				v |= dst[j]
			}
			if v != dst[i] {
				dst[i] = v
				changed = true
			}
		}
	}
}

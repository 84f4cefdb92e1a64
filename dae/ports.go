// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package dae implements the core of a differential-algebraic equation
// integrator framework: augmented sensitivity problem construction,
// derivative function assembly, structural sparsity propagation and
// numeric time stepping
package dae

// Input ports of the forward problem callback f(t, x, z, p)
const (
	DaeT     = iota // time
	DaeX            // differential state
	DaeZ            // algebraic state
	DaeP            // parameters
	DaeNumIn        // number of inputs
)

// Output ports of the forward problem callback
const (
	DaeOde    = iota // right-hand side of the differential states
	DaeAlg           // algebraic residuals
	DaeQuad          // quadrature right-hand sides
	DaeNumOut        // number of outputs
)

// Input ports of the backward problem callback g(t, x, z, p, rx, rz, rp)
const (
	RdaeT     = iota // time
	RdaeX            // forward differential state
	RdaeZ            // forward algebraic state
	RdaeP            // forward parameters
	RdaeRX           // backward differential state
	RdaeRZ           // backward algebraic state
	RdaeRP           // backward parameters
	RdaeNumIn        // number of inputs
)

// Output ports of the backward problem callback
const (
	RdaeOde    = iota // right-hand side of the backward differential states
	RdaeAlg           // backward algebraic residuals
	RdaeQuad          // backward quadrature right-hand sides
	RdaeNumOut        // number of outputs
)

// Input ports of an integrator
const (
	X0    = iota // differential state at the beginning of the interval
	P            // parameters
	Z0           // initial guess for the algebraic state
	RX0          // backward differential state at the end of the interval
	RP           // backward parameters
	RZ0          // final guess for the backward algebraic state
	NumIn        // number of inputs
)

// Output ports of an integrator
const (
	XF     = iota // differential state at the end of the interval
	QF            // quadrature state at the end of the interval
	ZF            // algebraic state at the end of the interval
	RXF           // backward differential state at the beginning of the interval
	RQF           // backward quadrature state at the beginning of the interval
	RZF           // backward algebraic state at the beginning of the interval
	NumOut        // number of outputs
)

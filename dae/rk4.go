// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"sort"

	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// RK4 implements the classic fixed-step fourth order Runge-Kutta scheme for
// problems without algebraic states. The forward trajectory is recorded so
// that the backward pass can interpolate the forward states
type RK4 struct {
	it  *Integrator
	dtf dbf.T // step size control

	// forward trajectory tape
	ts []float64
	xs [][]float64

	// statistics
	nsteps  int
	nstepsB int
}

// timeTol guards time loop termination against roundoff
const timeTol = 1e-12

func init() {
	RegisterStepper("rk4", func(it *Integrator) (Stepper, error) {
		if it.Nz > 0 || it.Nrz > 0 {
			return nil, cfgErr("rk4 stepper cannot handle algebraic states (nz=%d, nrz=%d)", it.Nz, it.Nrz)
		}
		return &RK4{it: it, dtf: &dbf.Cte{C: it.Opts.GetFloat("dt")}}, nil
	})
}

// Reset clears the statistics and the trajectory tape and records the
// initial state
func (o *RK4) Reset() error {
	o.nsteps = 0
	o.ts = o.ts[:0]
	o.xs = o.xs[:0]
	o.record(o.it.T0, o.it.Out[XF])
	return nil
}

// ResetB clears the backward statistics. The forward tape is kept
func (o *RK4) ResetB() error {
	o.nstepsB = 0
	return nil
}

// Integrate advances the forward solution from the current time up to tstop
func (o *RK4) Integrate(tstop float64) (err error) {
	it := o.it
	x := it.Out[XF]
	q := it.Out[QF]
	t := it.T
	for t < tstop-timeTol {
		h := o.dtf.F(t, nil)
		if t+h > tstop {
			h = tstop - t
		}
		if h <= 0 {
			return cfgErr("rk4: nonpositive step size %g", h)
		}
		if err = o.step(t, h, x, q); err != nil {
			return
		}
		t += h
		o.nsteps++
		o.record(t, x)
	}
	it.T = tstop
	return
}

// IntegrateB advances the backward solution from the current time down to
// tstop, interpolating the forward states from the tape
func (o *RK4) IntegrateB(tstop float64) (err error) {
	it := o.it
	rx := it.Out[RXF]
	rq := it.Out[RQF]
	t := it.T
	for t > tstop+timeTol {
		h := o.dtf.F(t, nil)
		if t-h < tstop {
			h = t - tstop
		}
		if h <= 0 {
			return cfgErr("rk4: nonpositive step size %g", h)
		}
		if err = o.stepB(t, h, rx, rq); err != nil {
			return
		}
		t -= h
		o.nstepsB++
	}
	it.T = tstop
	return
}

// Stats reports the number of steps taken
func (o *RK4) Stats() string {
	return io.Sf("rk4: %d forward steps, %d backward steps\n", o.nsteps, o.nstepsB)
}

// step advances x and q in place by one forward step of size h
func (o *RK4) step(t, h float64, x, q []float64) (err error) {
	k1o, k1q, err := o.eval(t, x)
	if err != nil {
		return
	}
	k2o, k2q, err := o.eval(t+h/2, axpy(x, h/2, k1o))
	if err != nil {
		return
	}
	k3o, k3q, err := o.eval(t+h/2, axpy(x, h/2, k2o))
	if err != nil {
		return
	}
	k4o, k4q, err := o.eval(t+h, axpy(x, h, k3o))
	if err != nil {
		return
	}
	for i := range x {
		x[i] += h / 6 * (k1o[i] + 2*k2o[i] + 2*k3o[i] + k4o[i])
	}
	for i := range q {
		q[i] += h / 6 * (k1q[i] + 2*k2q[i] + 2*k3q[i] + k4q[i])
	}
	return
}

// stepB advances rx and rq in place by one backward step of size h, from
// time t down to t-h. In forward time the backward states obey
// d(rx)/dt = -g_ode and d(rq)/dt = -g_quad, so stepping towards t0 both
// accumulate with a positive sign
func (o *RK4) stepB(t, h float64, rx, rq []float64) (err error) {
	k1o, k1q, err := o.evalB(t, rx)
	if err != nil {
		return
	}
	k2o, k2q, err := o.evalB(t-h/2, axpy(rx, h/2, k1o))
	if err != nil {
		return
	}
	k3o, k3q, err := o.evalB(t-h/2, axpy(rx, h/2, k2o))
	if err != nil {
		return
	}
	k4o, k4q, err := o.evalB(t-h, axpy(rx, h, k3o))
	if err != nil {
		return
	}
	for i := range rx {
		rx[i] += h / 6 * (k1o[i] + 2*k2o[i] + 2*k3o[i] + k4o[i])
	}
	for i := range rq {
		rq[i] += h / 6 * (k1q[i] + 2*k2q[i] + 2*k3q[i] + k4q[i])
	}
	return
}

// eval evaluates the forward problem callback
func (o *RK4) eval(t float64, x []float64) (ode, quad []float64, err error) {
	res, err := o.it.F.Eval([][]float64{{t}, x, nil, o.it.In[P]})
	if err != nil {
		return
	}
	return res[DaeOde], res[DaeQuad], nil
}

// evalB evaluates the backward problem callback at interpolated forward
// states
func (o *RK4) evalB(t float64, rx []float64) (ode, quad []float64, err error) {
	it := o.it
	res, err := it.G.Eval([][]float64{{t}, o.interp(t), nil, it.In[P], rx, nil, it.In[RP]})
	if err != nil {
		return
	}
	return res[RdaeOde], res[RdaeQuad], nil
}

// record appends one sample to the forward trajectory tape
func (o *RK4) record(t float64, x []float64) {
	c := make([]float64, len(x))
	copy(c, x)
	o.ts = append(o.ts, t)
	o.xs = append(o.xs, c)
}

// interp returns the forward state at time t, linearly interpolated from
// the tape
func (o *RK4) interp(t float64) []float64 {
	n := len(o.ts)
	if n == 0 {
		icPanic("rk4: backward pass requested before any forward pass")
	}
	if t <= o.ts[0] {
		return o.xs[0]
	}
	if t >= o.ts[n-1] {
		return o.xs[n-1]
	}
	k := sort.SearchFloat64s(o.ts, t)
	t0, t1 := o.ts[k-1], o.ts[k]
	a := (t - t0) / (t1 - t0)
	res := make([]float64, len(o.xs[k]))
	for i := range res {
		res[i] = (1-a)*o.xs[k-1][i] + a*o.xs[k][i]
	}
	return res
}

// axpy returns x + a*y in a fresh slice
func axpy(x []float64, a float64, y []float64) (res []float64) {
	res = make([]float64, len(x))
	for i := range x {
		res[i] = x[i] + a*y[i]
	}
	return
}

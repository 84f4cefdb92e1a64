// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/Fleurinck/casadi/linsol"
	"github.com/Fleurinck/casadi/opt"
	"github.com/Fleurinck/casadi/sym"
)

// Dims holds the dimensions of an integration problem
type Dims struct {
	Nx  int // differential states
	Nz  int // algebraic states
	Nq  int // quadrature states
	Np  int // parameters
	Nrx int // backward differential states
	Nrz int // backward algebraic states
	Nrq int // backward quadrature states
	Nrp int // backward parameters
}

// Integrator solves an initial value problem in differential-algebraic
// equations over a fixed time horizon, with an optional backward problem
// integrated over the same horizon in reverse. It implements sym.Callable,
// so integrators can be embedded into expression graphs
type Integrator struct {

	// problem definition
	F *sym.Function // forward problem callback: f(t, x, z, p)
	G *sym.Function // backward problem callback: g(t, x, z, p, rx, rz, rp), may be nil
	Dims
	Opts *opt.Registry

	// time horizon
	T0 float64 // beginning of the interval
	Tf float64 // end of the interval
	T  float64 // current time

	// numeric buffers, one per port
	In  [NumIn][]float64
	Out [NumOut][]float64

	// dependency bit-vectors, one per port
	InBits  [NumIn][]sym.Bvec
	OutBits [NumOut][]sym.Bvec

	// collaborators
	LinsolF *linsol.Solver // structural solver for the forward problem
	LinsolG *linsol.Solver // structural solver for the backward problem
	Stepper Stepper        // time stepping scheme

	// control
	ShowMsg bool

	// derived data
	ready bool
}

// NewIntegrator creates an integrator for the given problem callbacks and
// registers the default options. The backward callback g may be nil. Init
// must be called before any other operation
func NewIntegrator(f, g *sym.Function) (o *Integrator) {
	o = &Integrator{F: f, G: g}
	o.Np = -1 // unknown until initialized
	o.Opts = opt.NewRegistry()
	o.Opts.Add("name", "unnamed_integrator", "name of the integrator")
	o.Opts.Add("verbose", false, "show messages")
	o.Opts.Add("print_stats", false, "print statistics after integration")
	o.Opts.Add("t0", 0.0, "beginning of the time horizon")
	o.Opts.Add("tf", 1.0, "end of the time horizon")
	o.Opts.Add("stepper", "rk4", "name of the time stepping scheme")
	o.Opts.Add("dt", 1e-3, "step size for fixed-step schemes")
	o.Opts.Add("augmented_options", nil, "options passed down to an augmented integrator, if one is constructed")
	o.Opts.Add("expand_augmented", true, "replace embedded calls in the augmented problem when the original callbacks are call-free")
	return
}

// Init resolves the problem dimensions from the callback ports, checks
// their consistency, allocates the port buffers and creates the structural
// solvers and the time stepping scheme
func (o *Integrator) Init() (err error) {

	// forward problem
	if o.F == nil {
		return cfgErr("integrator needs a forward problem callback")
	}
	if o.F.NumIn() != DaeNumIn {
		return cfgErr("forward problem callback %q has %d inputs, expecting %d", o.F.Name(), o.F.NumIn(), DaeNumIn)
	}
	if o.F.NumOut() != DaeNumOut {
		return cfgErr("forward problem callback %q has %d outputs, expecting %d", o.F.Name(), o.F.NumOut(), DaeNumOut)
	}
	o.Nx = o.F.InSize(DaeX)
	o.Nz = o.F.InSize(DaeZ)
	o.Np = o.F.InSize(DaeP)
	o.Nq = o.F.OutSize(DaeQuad)
	if got := o.F.OutSize(DaeOde); got != o.Nx {
		return dimErr("ode", o.Nx, got)
	}
	if got := o.F.OutSize(DaeAlg); got != o.Nz {
		return dimErr("alg", o.Nz, got)
	}

	// backward problem
	o.Nrx, o.Nrz, o.Nrq, o.Nrp = 0, 0, 0, 0
	if o.G != nil {
		if o.G.NumIn() != RdaeNumIn {
			return cfgErr("backward problem callback %q has %d inputs, expecting %d", o.G.Name(), o.G.NumIn(), RdaeNumIn)
		}
		if o.G.NumOut() != RdaeNumOut {
			return cfgErr("backward problem callback %q has %d outputs, expecting %d", o.G.Name(), o.G.NumOut(), RdaeNumOut)
		}
		o.Nrx = o.G.InSize(RdaeRX)
		o.Nrz = o.G.InSize(RdaeRZ)
		o.Nrp = o.G.InSize(RdaeRP)
		o.Nrq = o.G.OutSize(RdaeQuad)
		if got := o.G.InSize(RdaeX); got != o.Nx {
			return dimErr("x (backward callback)", o.Nx, got)
		}
		if got := o.G.InSize(RdaeZ); got != o.Nz {
			return dimErr("z (backward callback)", o.Nz, got)
		}
		if got := o.G.InSize(RdaeP); got != o.Np {
			return dimErr("p (backward callback)", o.Np, got)
		}
		if got := o.G.OutSize(RdaeOde); got != o.Nrx {
			return dimErr("rode", o.Nrx, got)
		}
		if got := o.G.OutSize(RdaeAlg); got != o.Nrz {
			return dimErr("ralg", o.Nrz, got)
		}
	}

	// port buffers, zero-initialized
	isz := o.inSizes()
	osz := o.outSizes()
	for i := 0; i < NumIn; i++ {
		o.In[i] = make([]float64, isz[i])
		o.InBits[i] = make([]sym.Bvec, isz[i])
	}
	for i := 0; i < NumOut; i++ {
		o.Out[i] = make([]float64, osz[i])
		o.OutBits[i] = make([]sym.Bvec, osz[i])
	}

	// time horizon and messages
	o.T0 = o.Opts.GetFloat("t0")
	o.Tf = o.Opts.GetFloat("tf")
	o.T = o.T0
	o.ShowMsg = o.Opts.GetBool("verbose")
	if o.Tf < o.T0 {
		return cfgErr("end of the time horizon (%g) lies before its beginning (%g)", o.Tf, o.T0)
	}

	// structural solvers for the implicit couplings
	o.LinsolF, err = linsol.New(o.SpJacF())
	if err != nil {
		return
	}
	if o.G != nil {
		o.LinsolG, err = linsol.New(o.SpJacG())
		if err != nil {
			return
		}
	}

	// time stepping scheme
	name := o.Opts.GetString("stepper")
	alloc, ok := steppers[name]
	if !ok {
		return cfgErr("cannot find stepper named %q", name)
	}
	o.Stepper, err = alloc(o)
	if err != nil {
		return
	}

	o.ready = true
	if o.ShowMsg {
		io.Pf("%s: nx=%d nz=%d nq=%d np=%d nrx=%d nrz=%d nrq=%d nrp=%d\n",
			o.Name(), o.Nx, o.Nz, o.Nq, o.Np, o.Nrx, o.Nrz, o.Nrq, o.Nrp)
	}
	return
}

// inSizes returns the input port sizes in port order
func (o *Integrator) inSizes() [NumIn]int {
	return [NumIn]int{X0: o.Nx, P: o.Np, Z0: o.Nz, RX0: o.Nrx, RP: o.Nrp, RZ0: o.Nrz}
}

// outSizes returns the output port sizes in port order
func (o *Integrator) outSizes() [NumOut]int {
	return [NumOut]int{XF: o.Nx, QF: o.Nq, ZF: o.Nz, RXF: o.Nrx, RQF: o.Nrq, RZF: o.Nrz}
}

// mustInit panics unless Init has completed
func (o *Integrator) mustInit(op string) {
	if !o.ready {
		chk.Panic("integrator %q must be initialized before %s", o.Name(), op)
	}
}

// Name returns the integrator name
func (o *Integrator) Name() string { return o.Opts.GetString("name") }

// NumIn returns the number of input ports
func (o *Integrator) NumIn() int { return NumIn }

// NumOut returns the number of output ports
func (o *Integrator) NumOut() int { return NumOut }

// InSize returns the size of input port i
func (o *Integrator) InSize(i int) int { return o.inSizes()[i] }

// OutSize returns the size of output port i
func (o *Integrator) OutSize(i int) int { return o.outSizes()[i] }

// Reset prepares a forward integration pass: rewinds time to the beginning
// of the horizon and seeds the outputs from the initial conditions
func (o *Integrator) Reset() (err error) {
	o.mustInit("Reset")
	o.T = o.T0
	la.Vector(o.Out[XF]).Apply(1, o.In[X0])
	la.Vector(o.Out[ZF]).Apply(1, o.In[Z0])
	la.Vector(o.Out[QF]).Fill(0)
	return o.Stepper.Reset()
}

// ResetB prepares a backward integration pass: rewinds time to the end of
// the horizon and seeds the backward outputs from the final conditions
func (o *Integrator) ResetB() (err error) {
	o.mustInit("ResetB")
	o.T = o.Tf
	la.Vector(o.Out[RXF]).Apply(1, o.In[RX0])
	la.Vector(o.Out[RZF]).Apply(1, o.In[RZ0])
	la.Vector(o.Out[RQF]).Fill(0)
	return o.Stepper.ResetB()
}

// Evaluate runs a full solve: forward integration over the horizon followed
// by a backward pass whenever a backward problem is present
func (o *Integrator) Evaluate() (err error) {
	o.mustInit("Evaluate")
	if err = o.Reset(); err != nil {
		return
	}
	if err = o.Stepper.Integrate(o.Tf); err != nil {
		return
	}
	if o.Nrx > 0 {
		if err = o.ResetB(); err != nil {
			return
		}
		if err = o.Stepper.IntegrateB(o.T0); err != nil {
			return
		}
	}
	if o.Opts.GetBool("print_stats") {
		io.Pf("%s", o.Stepper.Stats())
	}
	return
}

// Eval implements sym.Callable: it loads the input data, runs a full solve
// and returns fresh copies of the outputs
func (o *Integrator) Eval(in [][]float64) (out [][]float64, err error) {
	o.mustInit("Eval")
	if len(in) != NumIn {
		return nil, cfgErr("integrator %q takes %d inputs; got %d", o.Name(), NumIn, len(in))
	}
	for i := 0; i < NumIn; i++ {
		if len(in[i]) != o.InSize(i) {
			return nil, dimErr(io.Sf("input %d", i), o.InSize(i), len(in[i]))
		}
		copy(o.In[i], in[i])
	}
	if err = o.Evaluate(); err != nil {
		return
	}
	out = make([][]float64, NumOut)
	for i := 0; i < NumOut; i++ {
		out[i] = make([]float64, o.OutSize(i))
		copy(out[i], o.Out[i])
	}
	return
}

// Derivative implements sym.Derivable by assembling the derivative function
// backed by an augmented integrator
func (o *Integrator) Derivative(nfwd, nadj int) (sym.Callable, error) {
	if nfwd == 0 && nadj == 0 {
		return o, nil
	}
	return o.GetDerivative(nfwd, nadj)
}

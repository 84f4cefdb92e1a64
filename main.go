// Copyright 2026 The Casadi-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Fleurinck/casadi/dae"
	"github.com/Fleurinck/casadi/sym"
)

// Scenario defines one integration run loaded from a YAML file
type Scenario struct {
	Model      string    `yaml:"model"`
	T0         float64   `yaml:"t0"`
	Tf         float64   `yaml:"tf"`
	Dt         float64   `yaml:"dt"`
	X0         []float64 `yaml:"x0"`
	P          []float64 `yaml:"p"`
	Nfwd       int       `yaml:"nfwd"`
	Nadj       int       `yaml:"nadj"`
	Verbose    bool      `yaml:"verbose"`
	PrintStats bool      `yaml:"print_stats"`
}

// models holds the available demonstration problems
var models = map[string]func() *sym.Function{
	"decay":     decayModel,
	"vanderpol": vanderpolModel,
}

// decayModel builds dx/dt = -p*x with quadrature dq/dt = x
func decayModel() *sym.Function {
	t := sym.Sym("t", 1)
	x := sym.Sym("x", 1)
	z := sym.Sym("z", 0)
	p := sym.Sym("p", 1)
	return sym.NewFunction("decay", []sym.Vec{t, x, z, p}, []sym.Vec{
		sym.Neg(sym.Mul(p, x)),
		{},
		x,
	})
}

// vanderpolModel builds the Van der Pol oscillator with a constant control
//   dx0/dt = (1 - x1*x1)*x0 - x1 + p
//   dx1/dt = x0
// and the quadrature dq/dt = x0*x0 + x1*x1 + p*p
func vanderpolModel() *sym.Function {
	t := sym.Sym("t", 1)
	x := sym.Sym("x", 2)
	z := sym.Sym("z", 0)
	p := sym.Sym("p", 1)
	xs := sym.VertSplit(x, []int{0, 1, 2})
	x0, x1 := xs[0], xs[1]
	one := sym.NewConst([]float64{1})
	ode0 := sym.Add(sym.Sub(sym.Mul(sym.Sub(one, sym.Mul(x1, x1)), x0), x1), p)
	quad := sym.Add(sym.Add(sym.Mul(x0, x0), sym.Mul(x1, x1)), sym.Mul(p, p))
	return sym.NewFunction("vanderpol", []sym.Vec{t, x, z, p}, []sym.Vec{
		sym.Vertcat(ode0, x0),
		{},
		quad,
	})
}

// loadScenario reads and validates a scenario file
func loadScenario(filename string) (s *Scenario, err error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, chk.Err("cannot read scenario file %q: %v", filename, err)
	}
	s = &Scenario{Tf: 1, Dt: 1e-3}
	if err = yaml.Unmarshal(b, s); err != nil {
		return nil, chk.Err("cannot decode scenario file %q: %v", filename, err)
	}
	if _, ok := models[s.Model]; !ok {
		return nil, chk.Err("cannot find model named %q", s.Model)
	}
	return
}

// newIntegrator builds and initializes an integrator for a scenario. An
// optional JSON file with extra integrator options is applied on top
func newIntegrator(s *Scenario, optsFile string) (it *dae.Integrator, err error) {
	it = dae.NewIntegrator(models[s.Model](), nil)
	it.Opts.Set("name", s.Model)
	it.Opts.Set("t0", s.T0)
	it.Opts.Set("tf", s.Tf)
	it.Opts.Set("dt", s.Dt)
	it.Opts.Set("verbose", s.Verbose)
	it.Opts.Set("print_stats", s.PrintStats)
	if optsFile != "" {
		if err = it.Opts.ReadJSON(optsFile); err != nil {
			return nil, err
		}
	}
	if err = it.Init(); err != nil {
		return nil, err
	}
	if len(s.X0) != it.Nx {
		return nil, chk.Err("scenario has %d initial states, model %q needs %d", len(s.X0), s.Model, it.Nx)
	}
	if len(s.P) != it.Np {
		return nil, chk.Err("scenario has %d parameters, model %q needs %d", len(s.P), s.Model, it.Np)
	}
	copy(it.In[dae.X0], s.X0)
	copy(it.In[dae.P], s.P)
	return
}

// runScenario integrates one scenario and prints the results, including
// sensitivities when directions are requested
func runScenario(filename, optsFile string) (err error) {
	s, err := loadScenario(filename)
	if err != nil {
		return
	}
	it, err := newIntegrator(s, optsFile)
	if err != nil {
		return
	}
	if err = it.Evaluate(); err != nil {
		return
	}
	io.Pf("model %q integrated over [%g, %g]\n", s.Model, s.T0, s.Tf)
	io.Pf("  xf = %v\n", it.Out[dae.XF])
	io.Pf("  qf = %v\n", it.Out[dae.QF])

	if s.Nfwd == 0 && s.Nadj == 0 {
		return
	}
	d, err := it.GetDerivative(s.Nfwd, s.Nadj)
	if err != nil {
		return
	}
	in := make([][]float64, d.NumIn())
	for i := range in {
		in[i] = make([]float64, d.InSize(i))
	}
	copy(in[dae.X0], s.X0)
	copy(in[dae.P], s.P)
	for dir := 0; dir < s.Nfwd; dir++ {
		// unit seed on one initial state per direction
		blk := (1 + dir) * dae.NumIn
		in[blk+dae.X0][dir%it.Nx] = 1
	}
	for dir := 0; dir < s.Nadj; dir++ {
		// unit seed on the final state per direction
		blk := (1+s.Nfwd)*dae.NumIn + dir*dae.NumOut
		in[blk+dae.XF][dir%it.Nx] = 1
	}
	res, err := d.Eval(in)
	if err != nil {
		return
	}
	for dir := 0; dir < s.Nfwd; dir++ {
		blk := (1 + dir) * dae.NumOut
		io.Pf("forward direction %d (seed on x0[%d]):\n", dir, dir%it.Nx)
		io.Pf("  d xf = %v\n", res[blk+dae.XF])
		io.Pf("  d qf = %v\n", res[blk+dae.QF])
	}
	for dir := 0; dir < s.Nadj; dir++ {
		blk := (1+s.Nfwd)*dae.NumOut + dir*dae.NumIn
		io.Pf("adjoint direction %d (seed on xf[%d]):\n", dir, dir%it.Nx)
		io.Pf("  adj x0 = %v\n", res[blk+dae.X0])
		io.Pf("  adj p  = %v\n", res[blk+dae.P])
	}
	return
}

// showSparsity prints the system matrix pattern and the port dependencies
// of one scenario
func showSparsity(filename string) (err error) {
	s, err := loadScenario(filename)
	if err != nil {
		return
	}
	it, err := newIntegrator(s, "")
	if err != nil {
		return
	}
	io.Pf("system matrix pattern of model %q:\n", s.Model)
	io.Pf("%v\n", la.NewMatrixDeep2(it.SpJacF().ToDense()).Print("%3g"))

	// one bit per initial state and parameter
	for i := 0; i < it.Nx; i++ {
		it.InBits[dae.X0][i] = 1 << uint(i)
	}
	for i := 0; i < it.Np; i++ {
		it.InBits[dae.P][i] = 1 << uint(it.Nx+i)
	}
	if err = it.PropagateSparsity(true); err != nil {
		return
	}
	io.Pf("dependency bits after forward propagation:\n")
	io.Pf("  xf: %b\n", it.OutBits[dae.XF])
	io.Pf("  qf: %b\n", it.OutBits[dae.QF])
	return
}

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("\nERROR: %v\n", err)
			chk.Verbose = true
			for i := 5; i > 3; i-- {
				chk.CallerInfo(i)
			}
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:   "casadi",
		Short: "integrate differential-algebraic equations with sensitivities",
	}

	var optsFile string
	run := &cobra.Command{
		Use:   "run [scenario.yml]",
		Short: "integrate a scenario and print results and sensitivities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args[0], optsFile)
		},
	}
	run.Flags().StringVar(&optsFile, "options", "", "JSON file with extra integrator options")

	sparsity := &cobra.Command{
		Use:   "sparsity [scenario.yml]",
		Short: "print structural information about a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSparsity(args[0])
		},
	}

	root.AddCommand(run, sparsity)
	if err := root.Execute(); err != nil {
		io.PfRed("ERROR: %v\n", err)
		os.Exit(1)
	}
}

package DNS3D

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/notargets/dnsflux/FV3D"
	"github.com/notargets/dnsflux/InputParameters"
	"github.com/notargets/dnsflux/output"
	"github.com/notargets/dnsflux/spectral"
)

/*
DNS is one forced box turbulence simulation. Each step advances the forcing
process, projects it to a solenoidal field and transforms it to a physical
force, then solves the momentum predictor and the PISO correctors:

	ddt(U) + div(phi, U) - laplacian(nu, U) = -grad(p) + force
	div(U) = 0
*/
type DNS struct {
	Input            *InputParameters.InputParametersDNS
	Nu               float64
	Mesh             *FV3D.BoxMesh
	FV               *FV3D.Discretization
	K                *spectral.Kmesh
	Forcing          *spectral.OUProcess
	Projector        *spectral.Projector
	PISO             *PISO
	U                *FV3D.VectorField
	P                *FV3D.ScalarField
	Phi              *FV3D.SurfaceScalarField
	Force            *FV3D.VectorField
	Run              RunController
	Sink             output.Sink
	MomentumControls FV3D.SolverControls
	ParallelDegree   int // Number of go routines to use for parallel execution
	PrintInterval    int // Steps between progress lines
	Verbose          bool
	// Results of the latest step
	Momentum   [3]FV3D.SolverPerformance
	Report     PISOReport
	Properties GlobalProperties
}

// runState is the clock part of a checkpoint
type runState struct {
	StartTime         float64
	TimeIndex         int
	CumulativeContErr float64
}

type RunMetadata struct {
	Application    string
	Title          string
	Started        string
	ParallelDegree int
	ForcedModes    int
	Input          InputParameters.InputParametersDNS
}

func NewDNS(ip *InputParameters.InputParametersDNS, sink output.Sink, verbose bool) (c *DNS, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	c = &DNS{
		Input:         ip,
		Nu:            ip.Viscosity,
		Sink:          sink,
		PrintInterval: 1,
		Verbose:       verbose,
		MomentumControls: FV3D.SolverControls{
			Tolerance: ip.MomentumTolerance,
			MaxIter:   ip.MomentumMaxIterations,
		},
	}
	if c.Mesh, err = FV3D.NewBoxMesh(ip.Box()); err != nil {
		return
	}
	c.SetParallelDegree(ip.ProcLimit)
	c.K = spectral.KmeshFromMesh(c.Mesh)
	var (
		cfg spectral.OUConfig
		pt  spectral.ProjectionType
	)
	if cfg, err = ip.ForcingConfig(); err != nil {
		return
	}
	if c.Forcing, err = spectral.NewOUProcess(c.K, cfg); err != nil {
		return
	}
	if pt, err = spectral.NewProjectionType(ip.ForcingProjection); err != nil {
		return
	}
	c.Projector = spectral.NewProjector(c.K, pt, ip.ProcLimit)
	c.PISO = NewPISO(c.FV, ip.NCorrectors, ip.PRefCell, ip.PRefValue, FV3D.SolverControls{
		Tolerance: ip.PressureTolerance,
		MaxIter:   ip.PressureMaxIterations,
	})
	c.InitializeSolution()
	c.Run = NewRunTime(ip.StartTime, ip.EndTime, ip.TimeStep, ip.WriteInterval, 0)
	if verbose {
		fmt.Printf("Forced turbulence DNS in 3 Dimensions\n")
		fmt.Printf("Using %d go routines in parallel\n", c.ParallelDegree)
		c.Mesh.PrintStatistics()
		fmt.Printf("Forcing %d modes, scheme = %s, projection = %s\n",
			c.Forcing.ForcedCount(), cfg.Scheme, pt)
	}
	return
}

func (c *DNS) SetParallelDegree(ProcLimit int) {
	c.FV = FV3D.NewDiscretization(c.Mesh, ProcLimit)
	c.ParallelDegree = c.FV.CellPar.ParallelDegree
}

// InitializeSolution starts from rest with zero pressure
func (c *DNS) InitializeSolution() {
	c.U = FV3D.NewVectorField("U", c.Mesh)
	c.P = FV3D.NewScalarField("p", c.Mesh)
	c.Phi = FV3D.NewSurfaceScalarField("phi", c.Mesh)
	c.Force = FV3D.NewVectorField("force", c.Mesh)
	c.U.CorrectBoundaryConditions()
	c.P.CorrectBoundaryConditions()
}

// Step advances the solution by one time step, the clock must already have
// been advanced
func (c *DNS) Step() (err error) {
	var (
		dt = c.Run.DeltaT()
	)
	if !c.U.Finite() || !c.P.Finite() || !c.Phi.Finite() {
		return fmt.Errorf("%w: non-finite solution entering the step", ErrNumericalInstability)
	}
	F := c.Projector.Apply(c.Forcing.NewField())
	copy(c.Force.Internal, c.Projector.PhysicalForce(F))

	eqn := AssembleMomentum(c.FV, c.U, c.Phi, c.Nu, c.Force.Internal, dt)
	if c.Momentum, err = eqn.Solve(c.U, c.FV.Grad(c.P), c.MomentumControls); err != nil {
		return
	}
	if c.Report, err = c.PISO.Correct(eqn, c.U, c.P, c.Phi); err != nil {
		return
	}
	c.Properties = ComputeGlobalProperties(c.FV, c.U, c.Force.Internal, c.Nu)
	if !c.U.Finite() || !c.P.Finite() || !c.Phi.Finite() {
		err = fmt.Errorf("%w: non-finite solution", ErrNumericalInstability)
	}
	return
}

// Solve runs until the clock is exhausted or ctx is cancelled. Cancellation
// is honoured between steps and writes a checkpoint of the last completed
// step.
func (c *DNS) Solve(ctx context.Context) (err error) {
	if mw, ok := c.Sink.(interface{ WriteMetadata(meta any) error }); ok {
		if err = mw.WriteMetadata(c.Metadata()); err != nil {
			return
		}
	}
	c.PrintInitialization()
	var (
		steps   int
		elapsed time.Duration
		start   = time.Now()
	)
	for c.Run.HasNextStep() {
		select {
		case <-ctx.Done():
			log.Printf("Stopping at time = %s: %v", c.Run.TimeName(), ctx.Err())
			err = c.WriteCheckpoint()
			c.PrintFinal(elapsed, time.Since(start), steps)
			return
		default:
		}
		c.Run.AdvanceTime()
		stepStart := time.Now()
		if err = c.Step(); err != nil {
			return fmt.Errorf("time = %s: %w", c.Run.TimeName(), err)
		}
		elapsed += time.Since(stepStart)
		steps++
		if err = c.RecordProperties(); err != nil {
			return
		}
		finished := !c.Run.HasNextStep()
		if finished || steps%c.PrintInterval == 0 || steps == 1 {
			c.PrintUpdate(steps, elapsed, time.Since(start))
		}
		if c.Run.ShouldWrite() {
			if err = c.WriteCheckpoint(); err != nil {
				return
			}
		}
	}
	c.PrintFinal(elapsed, time.Since(start), steps)
	return
}

// RecordProperties appends the step diagnostics to the time series
func (c *DNS) RecordProperties() (err error) {
	var (
		t  = c.Run.CurrentTime()
		ce ContinuityErrors
	)
	if n := len(c.Report.Continuity); n > 0 {
		ce = c.Report.Continuity[n-1]
	}
	series := []struct {
		name  string
		value float64
	}{
		{"k", c.Properties.K},
		{"epsilon", c.Properties.Epsilon},
		{"power", c.Properties.Power},
		{"continuityGlobal", ce.Global},
		{"continuityCumulative", ce.Cumulative},
		{"maxDivergence", c.Report.MaxAbsDivergence},
	}
	for _, s := range series {
		if err = c.Sink.AppendSeries(s.name, t, s.value); err != nil {
			return
		}
	}
	return
}

func (c *DNS) WriteCheckpoint() (err error) {
	var (
		tn    = c.Run.TimeName()
		state spectral.OUState
	)
	if state, err = c.Forcing.State(); err != nil {
		return
	}
	rs := runState{
		StartTime:         c.Input.StartTime,
		TimeIndex:         c.Run.TimeIndex(),
		CumulativeContErr: c.PISO.CumulativeContErr,
	}
	fields := []struct {
		name string
		data any
	}{
		{"U", c.U},
		{"p", c.P},
		{"phi", c.Phi},
		{"force", c.Force},
		{"forcing", state},
		{"runState", rs},
		{"Ek", c.Projector.EnergySpectrum(c.U.Internal)},
	}
	for _, f := range fields {
		if err = c.Sink.WriteField(tn, f.name, f.data); err != nil {
			return
		}
	}
	if c.Verbose {
		log.Printf("Wrote checkpoint at time = %s", tn)
	}
	return
}

// Restart loads the latest checkpoint in src and resets the clock to it. The
// continued run reproduces the uninterrupted one bit for bit.
func (c *DNS) Restart(src output.Source) (timeName string, err error) {
	if timeName, err = src.LatestTime(); err != nil {
		return
	}
	var (
		rs    runState
		state spectral.OUState
	)
	reads := []struct {
		name string
		dst  any
	}{
		{"runState", &rs},
		{"U", c.U},
		{"p", c.P},
		{"phi", c.Phi},
		{"force", c.Force},
		{"forcing", &state},
	}
	for _, r := range reads {
		if err = src.ReadField(timeName, r.name, r.dst); err != nil {
			return
		}
	}
	if len(c.U.Internal) != c.Mesh.NCells() || len(c.Phi.Values) != c.Mesh.NFaces() {
		err = fmt.Errorf("%w: checkpoint at %s does not match the mesh", InputParameters.ErrConfiguration, timeName)
		return
	}
	if err = c.Forcing.Restore(state); err != nil {
		return
	}
	c.PISO.CumulativeContErr = rs.CumulativeContErr
	rt := NewRunTime(rs.StartTime, c.Input.EndTime, c.Input.TimeStep, c.Input.WriteInterval, 0)
	rt.index = rs.TimeIndex
	c.Run = rt
	log.Printf("Restarting from time = %s (step %d)", timeName, rs.TimeIndex)
	return
}

func (c *DNS) Metadata() RunMetadata {
	return RunMetadata{
		Application:    "dnsflux",
		Title:          c.Input.Title,
		Started:        time.Now().Format(time.RFC3339),
		ParallelDegree: c.ParallelDegree,
		ForcedModes:    c.Forcing.ForcedCount(),
		Input:          *c.Input,
	}
}

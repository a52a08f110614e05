package DNS3D

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dnsflux/FV3D"
	"github.com/notargets/dnsflux/InputParameters"
	"github.com/notargets/dnsflux/output"
)

func testInput(n int, walls [3]bool, EndTime float64) (ip *InputParameters.InputParametersDNS) {
	ip = &InputParameters.InputParametersDNS{
		Title:                  "test box",
		Viscosity:              0.01,
		ForcingCorrelationTime: 0.5,
		ForcingAmplitude:       1,
		ForcingKLower:          1,
		ForcingKUpper:          2,
		Seed:                   7,
		NCorrectors:            3,
		TimeStep:               0.001,
		EndTime:                EndTime,
		Cells:                  [3]int{n, n, n},
		Walls:                  walls,
		PressureTolerance:      1.e-13,
		ProcLimit:              2,
	}
	ip.SetDefaults()
	return
}

func newTestDNS(t *testing.T, ip *InputParameters.InputParametersDNS) (c *DNS, sink *output.Memory) {
	sink = output.NewMemory()
	c, err := NewDNS(ip, sink, false)
	require.NoError(t, err)
	return
}

func TestRunTime(t *testing.T) {
	{
		rt := NewRunTime(0, 0.01, 0.001, 0.005, 0)
		var steps, writes []int
		for rt.HasNextStep() {
			rt.AdvanceTime()
			steps = append(steps, rt.TimeIndex())
			if rt.ShouldWrite() {
				writes = append(writes, rt.TimeIndex())
			}
		}
		assert.Equal(t, 10, len(steps))
		assert.Equal(t, []int{5, 10}, writes)
		assert.Equal(t, "0.01", rt.TimeName())
		assert.InDelta(t, 0.01, rt.CurrentTime(), 1.e-15)
		assert.Equal(t, 0.001, rt.DeltaT())
	}
	{ // The last step is always written
		rt := NewRunTime(1, 1.0038, 0.001, 100, 0)
		var last int
		for rt.HasNextStep() {
			rt.AdvanceTime()
			if rt.ShouldWrite() {
				last = rt.TimeIndex()
			}
		}
		assert.Equal(t, 4, last)
		assert.Equal(t, "1.004", rt.TimeName())
	}
}

func TestMomentum(t *testing.T) {
	mesh, err := FV3D.NewBoxMesh(FV3D.StructuredBox{N: [3]int{4, 4, 4}, L: [3]float64{1, 1, 1}})
	require.NoError(t, err)
	fv := FV3D.NewDiscretization(mesh, 2)
	U := FV3D.NewVectorField("U", mesh)
	phi := FV3D.NewSurfaceScalarField("phi", mesh)
	force := make([][3]float64, mesh.NCells())
	for c, ctr := range mesh.Centres() {
		force[c] = [3]float64{math.Sin(2 * math.Pi * ctr[1]), 0, math.Cos(2 * math.Pi * ctr[0])}
	}
	nu, dt := 0.01, 0.001
	eqn := AssembleMomentum(fv, U, phi, nu, force, dt)
	{ // Periodic box: A = 1/dt + 6 nu / h^2
		for _, a := range eqn.A() {
			assert.InDelta(t, 1/dt+6*nu*16, a, 1.e-9)
		}
		// Fluid at rest, H is the force alone
		H := eqn.H(U)
		for c := range H {
			assert.InDeltaSlice(t, force[c][:], H[c][:], 1.e-12)
		}
	}
	{ // The predictor satisfies A U = H
		perf, err := eqn.Solve(U, make([][3]float64, mesh.NCells()), FV3D.SolverControls{Tolerance: 1.e-12, MaxIter: 100})
		require.NoError(t, err)
		for _, sp := range perf {
			assert.True(t, sp.Converged)
		}
		A, H := eqn.A(), eqn.H(U)
		for c := range H {
			for n := 0; n < 3; n++ {
				assert.InDelta(t, H[c][n], A[c]*U.Internal[c][n], 1.e-9)
			}
		}
	}
	{
		eqn.M.Diag[3] = -1
		assert.Panics(t, func() { eqn.A() })
	}
}

func TestPISOConservation(t *testing.T) {
	for _, walls := range [][3]bool{{false, false, false}, {false, true, false}, {true, true, true}} {
		c, _ := newTestDNS(t, testInput(8, walls, 1))
		for step := 0; step < 5; step++ {
			c.Run.AdvanceTime()
			require.NoError(t, c.Step())
			rep := c.Report
			assert.Equal(t, 3, len(rep.Pressure))
			assert.True(t, rep.FluxScale > 0)
			assert.True(t, rep.MaxAbsDivergence < 1.e-10*rep.FluxScale,
				"walls %v step %d: max |div| = %g, flux scale = %g", walls, step, rep.MaxAbsDivergence, rep.FluxScale)
			for _, ce := range rep.Continuity {
				assert.True(t, math.Abs(ce.Global) < 1.e-8)
			}
			for _, f := range c.Mesh.BoundaryFaces() {
				assert.Equal(t, 0., c.Phi.Values[f])
				assert.Equal(t, [3]float64{}, c.U.Boundary[f])
			}
		}
		assert.True(t, c.Properties.K > 0)
	}
}

func TestDeterminism(t *testing.T) {
	var runs []*DNS
	for _, np := range []int{1, 1, 4} {
		ip := testInput(6, [3]bool{false, false, true}, 1)
		ip.ProcLimit = np
		c, _ := newTestDNS(t, ip)
		for step := 0; step < 10; step++ {
			c.Run.AdvanceTime()
			require.NoError(t, c.Step())
		}
		runs = append(runs, c)
	}
	assert.Equal(t, 1, runs[0].ParallelDegree)
	assert.Equal(t, 4, runs[2].ParallelDegree)
	// Repeated serial runs, then a parallel run, reproduce the first bit for bit
	for _, c := range runs[1:] {
		assert.Equal(t, runs[0].U.Internal, c.U.Internal)
		assert.Equal(t, runs[0].P.Internal, c.P.Internal)
		assert.Equal(t, runs[0].Phi.Values, c.Phi.Values)
		assert.Equal(t, runs[0].Properties, c.Properties)
		assert.Equal(t, runs[0].PISO.CumulativeContErr, c.PISO.CumulativeContErr)
	}
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	// Uninterrupted
	full, _ := newTestDNS(t, testInput(6, [3]bool{}, 0.02))
	full.PrintInterval = 100
	require.NoError(t, full.Solve(ctx))
	assert.Equal(t, 20, full.Run.TimeIndex())

	// First half, then continue from its last checkpoint
	first, sink := newTestDNS(t, testInput(6, [3]bool{}, 0.01))
	first.PrintInterval = 100
	require.NoError(t, first.Solve(ctx))
	second, _ := newTestDNS(t, testInput(6, [3]bool{}, 0.02))
	second.PrintInterval = 100
	timeName, err := second.Restart(sink)
	require.NoError(t, err)
	assert.Equal(t, "0.01", timeName)
	assert.Equal(t, 10, second.Run.TimeIndex())
	require.NoError(t, second.Solve(ctx))

	assert.Equal(t, full.U.Internal, second.U.Internal)
	assert.Equal(t, full.P.Internal, second.P.Internal)
	assert.Equal(t, full.Phi.Values, second.Phi.Values)
	assert.Equal(t, full.PISO.CumulativeContErr, second.PISO.CumulativeContErr)

	// Series and spectra were recorded
	assert.Equal(t, 10, len(sink.Series["k"]))
	assert.Equal(t, 10, len(sink.Series["maxDivergence"]))
	es := sink.Graphs["0.01"]["Ek"]
	require.Equal(t, 2, len(es))
	var total float64
	for _, e := range es[1] {
		total += e
	}
	assert.InDelta(t, first.Properties.K/3, total, 1.e-12)
}

func TestCancel(t *testing.T) {
	c, sink := newTestDNS(t, testInput(4, [3]bool{}, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Solve(ctx))
	assert.Equal(t, 0, c.Run.TimeIndex())
	latest, err := sink.LatestTime()
	require.NoError(t, err)
	assert.Equal(t, "0", latest)
}

func TestNewDNSErrors(t *testing.T) {
	ip := testInput(4, [3]bool{}, 1)
	ip.Viscosity = -1
	_, err := NewDNS(ip, output.NewMemory(), false)
	assert.ErrorIs(t, err, InputParameters.ErrConfiguration)

	c, _ := newTestDNS(t, testInput(4, [3]bool{}, 1))
	_, err = c.Restart(output.NewMemory())
	assert.Error(t, err)
}

func TestSolveFailures(t *testing.T) {
	{ // Pressure solve that cannot converge
		ip := testInput(6, [3]bool{false, true, false}, 0.005)
		ip.PressureMaxIterations = 1
		c, sink := newTestDNS(t, ip)
		c.Run.AdvanceTime()
		assert.ErrorIs(t, c.Step(), FV3D.ErrLinearSolve)

		c, sink = newTestDNS(t, ip)
		err := c.Solve(context.Background())
		assert.ErrorIs(t, err, FV3D.ErrLinearSolve)
		assert.False(t, errors.Is(err, ErrNumericalInstability))
		assert.Equal(t, 1, c.Run.TimeIndex())
		assert.Empty(t, sink.Fields)
		assert.Empty(t, sink.Series)
	}
	{ // Non-finite velocity
		c, _ := newTestDNS(t, testInput(4, [3]bool{}, 0.005))
		c.U.Internal[5][1] = math.NaN()
		c.Run.AdvanceTime()
		assert.ErrorIs(t, c.Step(), ErrNumericalInstability)

		c, sink := newTestDNS(t, testInput(4, [3]bool{}, 0.005))
		c.U.Internal[5][1] = math.Inf(1)
		err := c.Solve(context.Background())
		assert.ErrorIs(t, err, ErrNumericalInstability)
		assert.Equal(t, 1, c.Run.TimeIndex())
		assert.Empty(t, sink.Fields)
		_, err = sink.LatestTime()
		assert.Error(t, err)
	}
}

// Periodic unit cube driven from rest for 1000 steps
func TestForcedTurbulenceScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("long scenario")
	}
	c, sink := newTestDNS(t, testInput(8, [3]bool{}, 1))
	c.PrintInterval = 250
	require.NoError(t, c.Solve(context.Background()))
	assert.Equal(t, 1000, c.Run.TimeIndex())
	k := sink.Series["k"]
	require.Equal(t, 1000, len(k))
	for _, p := range k {
		assert.True(t, p.Value > 0)
		assert.True(t, p.Value < 1.e3)
	}
	for _, p := range sink.Series["continuityGlobal"] {
		assert.True(t, math.Abs(p.Value) < 1.e-8)
	}
	assert.True(t, c.Properties.Epsilon > 0)
	assert.True(t, c.U.Finite())
}

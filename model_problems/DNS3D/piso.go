package DNS3D

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/dnsflux/FV3D"
	"github.com/notargets/dnsflux/utils"
)

var ErrNumericalInstability = errors.New("numerical instability")

// PISO runs a fixed number of pressure correctors after the momentum predictor
type PISO struct {
	NCorrectors       int
	PRefCell          int
	PRefValue         float64
	Controls          FV3D.SolverControls
	CumulativeContErr float64
	fv                *FV3D.Discretization
}

func NewPISO(fv *FV3D.Discretization, nCorr, pRefCell int, pRefValue float64, ctl FV3D.SolverControls) *PISO {
	if nCorr < 1 {
		panic(fmt.Errorf("PISO needs at least one corrector, have %d", nCorr))
	}
	return &PISO{
		NCorrectors: nCorr,
		PRefCell:    pRefCell,
		PRefValue:   pRefValue,
		Controls:    ctl,
		fv:          fv,
	}
}

type ContinuityErrors struct {
	SumLocal, Global, Cumulative float64
}

type PISOReport struct {
	Pressure         []FV3D.SolverPerformance // One per corrector
	Continuity       []ContinuityErrors
	MaxAbsDivergence float64 // max over cells of |sum phi|
	FluxScale        float64 // max over faces of |phi|
}

// Correct updates U, p and phi in place. The predictor must already have
// been solved with eqn.
func (ps *PISO) Correct(eqn *MomentumEquation, U *FV3D.VectorField, p *FV3D.ScalarField,
	phi *FV3D.SurfaceScalarField) (rep PISOReport, err error) {
	var (
		fv    = ps.fv
		mesh  = fv.Mesh
		nc    = mesh.NCells()
		rUA   = make([]float64, nc)
		Ustar = FV3D.NewVectorField("HbyA", mesh)
	)
	for corr := 0; corr < ps.NCorrectors; corr++ {
		A := eqn.A()
		for c := range rUA {
			rUA[c] = 1 / A[c]
		}
		H := eqn.H(U)
		fv.CellPar.Run(func(bn, kMin, kMax int) {
			for c := kMin; c < kMax; c++ {
				for n := 0; n < 3; n++ {
					Ustar.Internal[c][n] = rUA[c] * H[c][n]
				}
			}
		})
		Ustar.CorrectBoundaryConditions()
		rUAf := fv.Interpolate(rUA)
		phiStar := fv.Flux(Ustar)
		ddtCorr := ps.ddtPhiCorr(eqn, rUAf)
		for f := range phiStar {
			phiStar[f] += ddtCorr[f]
		}

		// laplacian(rUA, p) = div(phi*), solved as the SPD system -laplacian
		pEqn := fv.Laplacian(rUAf)
		pEqn.Negate()
		b := fv.SurfaceSum(phiStar)
		for c := range b {
			b[c] = -b[c]
		}
		pEqn.SetReference(ps.PRefCell, ps.PRefValue, b)
		var sp FV3D.SolverPerformance
		if sp, err = FV3D.PCG(p.Name, pEqn, p.Internal, b, ps.Controls); err != nil {
			return
		}
		rep.Pressure = append(rep.Pressure, sp)
		p.CorrectBoundaryConditions()

		pFlux := fv.LaplacianFlux(rUAf, p)
		for f := range phi.Values {
			phi.Values[f] = phiStar[f] - pFlux[f]
		}
		rep.Continuity = append(rep.Continuity, ps.continuityErrors(phi.Values, eqn.DT))

		gradP := fv.Grad(p)
		fv.CellPar.Run(func(bn, kMin, kMax int) {
			for c := kMin; c < kMax; c++ {
				for n := 0; n < 3; n++ {
					U.Internal[c][n] = Ustar.Internal[c][n] - rUA[c]*gradP[c][n]
				}
			}
		})
		U.CorrectBoundaryConditions()
		if !U.Finite() || !p.Finite() || !phi.Finite() {
			err = fmt.Errorf("%w: non-finite solution after PISO corrector %d", ErrNumericalInstability, corr+1)
			return
		}
	}
	for _, s := range fv.SurfaceSum(phi.Values) {
		rep.MaxAbsDivergence = math.Max(rep.MaxAbsDivergence, math.Abs(s))
	}
	for _, v := range phi.Values {
		rep.FluxScale = math.Max(rep.FluxScale, math.Abs(v))
	}
	return
}

/*
ddtPhiCorr is the flux correction c_f rUA_f (phi_old - U_old,f . Sf)/dt, with

	c_f = 1 - min(|phi_old - U_old,f . Sf| / (|phi_old| + SMALL), 1)

and zero on boundary faces. It keeps the face flux from decoupling from the
cell velocity across time steps.
*/
func (ps *PISO) ddtPhiCorr(eqn *MomentumEquation, rUAf []float64) (corr []float64) {
	var (
		fv        = ps.fv
		neighbour = fv.Mesh.Neighbour()
		phiOld    = eqn.PhiOld.Values
		UOldFlux  = fv.Flux(eqn.UOld)
	)
	corr = make([]float64, len(phiOld))
	fv.FacePar.Run(func(bn, fMin, fMax int) {
		for f := fMin; f < fMax; f++ {
			if neighbour[f] < 0 {
				continue
			}
			diff := phiOld[f] - UOldFlux[f]
			cf := 1 - math.Min(math.Abs(diff)/(math.Abs(phiOld[f])+utils.SMALL), 1)
			corr[f] = cf * rUAf[f] * diff / eqn.DT
		}
	})
	return
}

// continuityErrors sums in cell order, so the result does not depend on the
// parallel degree
func (ps *PISO) continuityErrors(phi []float64, dt float64) (ce ContinuityErrors) {
	var (
		V         = ps.fv.Mesh.Volumes()
		div       = ps.fv.DivFlux(phi)
		totalV    = FV3D.TotalVolume(ps.fv.Mesh)
		sumAbs, s float64
	)
	for c, d := range div {
		sumAbs += math.Abs(d) * V[c]
		s += d * V[c]
	}
	ce.SumLocal = dt * sumAbs / totalV
	ce.Global = dt * s / totalV
	ps.CumulativeContErr += ce.Global
	ce.Cumulative = ps.CumulativeContErr
	return
}

func (ce ContinuityErrors) String() string {
	return fmt.Sprintf("time step continuity errors : sum local = %g, global = %g, cumulative = %g",
		ce.SumLocal, ce.Global, ce.Cumulative)
}

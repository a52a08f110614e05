package DNS3D

import (
	"fmt"

	"github.com/notargets/dnsflux/FV3D"
)

/*
MomentumEquation is

	ddt(U) + div(phi, U) - laplacian(nu, U) = force

discretized with implicit Euler in time and Gauss linear in space. One LDU
matrix serves the three velocity components, each with its own source, so
that M U = Source. The old time level of U and phi is kept for the flux
time-derivative correction in PISO.
*/
type MomentumEquation struct {
	M      *FV3D.LDUMatrix
	Source [][3]float64
	UOld   *FV3D.VectorField
	PhiOld *FV3D.SurfaceScalarField
	DT     float64
	fv     *FV3D.Discretization
}

func AssembleMomentum(fv *FV3D.Discretization, U *FV3D.VectorField, phi *FV3D.SurfaceScalarField,
	nu float64, force [][3]float64, dt float64) (eqn *MomentumEquation) {
	var (
		V       = fv.Mesh.Volumes()
		M, Kddt = fv.Ddt(U, dt)
		C, Kdiv = fv.Div(phi, U)
		L, Klap = fv.LaplacianU(nu, U)
	)
	M.AddMatrix(C)
	M.AddScaled(L, -1)
	eqn = &MomentumEquation{
		M:      M,
		Source: make([][3]float64, fv.Mesh.NCells()),
		UOld:   U.Copy(),
		PhiOld: phi.Copy(),
		DT:     dt,
		fv:     fv,
	}
	fv.CellPar.Run(func(bn, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			for n := 0; n < 3; n++ {
				eqn.Source[c][n] = V[c]*force[c][n] - Kddt[c][n] - Kdiv[c][n] + Klap[c][n]
			}
		}
	})
	return
}

// A is the volume normalized diagonal, it must be strictly positive
func (eqn *MomentumEquation) A() (A []float64) {
	var (
		V = eqn.fv.Mesh.Volumes()
	)
	A = make([]float64, len(V))
	for c := range A {
		A[c] = eqn.M.Diag[c] / V[c]
		if !(A[c] > 0) {
			panic(fmt.Errorf("momentum diagonal is not positive in cell %d: A = %g", c, A[c]))
		}
	}
	return
}

// H is (Source - sum_N a_N U_N)/V, the momentum operator without its diagonal
func (eqn *MomentumEquation) H(U *FV3D.VectorField) (H [][3]float64) {
	var (
		nc = len(U.Internal)
		V  = eqn.fv.Mesh.Volumes()
	)
	H = make([][3]float64, nc)
	for n := 0; n < 3; n++ {
		var (
			comp = U.Component(n, nil)
			off  = make([]float64, nc)
		)
		eqn.fv.CellPar.Run(func(bn, kMin, kMax int) {
			eqn.M.NegSumOffDiag(off, comp, kMin, kMax)
			for c := kMin; c < kMax; c++ {
				H[c][n] = (eqn.Source[c][n] + off[c]) / V[c]
			}
		})
	}
	return
}

// Solve is the momentum predictor M U = Source - V grad(p), U is updated in
// place and its boundary values corrected
func (eqn *MomentumEquation) Solve(U *FV3D.VectorField, gradP [][3]float64, ctl FV3D.SolverControls) (perf [3]FV3D.SolverPerformance, err error) {
	var (
		nc = len(U.Internal)
		V  = eqn.fv.Mesh.Volumes()
		b  = make([]float64, nc)
		x  = make([]float64, nc)
	)
	for n := 0; n < 3; n++ {
		for c := range b {
			b[c] = eqn.Source[c][n] - V[c]*gradP[c][n]
		}
		U.Component(n, x)
		if perf[n], err = FV3D.PBiCGStab(componentNames[n], eqn.M, x, b, ctl); err != nil {
			return
		}
		U.SetComponent(n, x)
	}
	U.CorrectBoundaryConditions()
	return
}

var componentNames = [3]string{"Ux", "Uy", "Uz"}

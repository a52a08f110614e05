package FV3D

import (
	"github.com/notargets/dnsflux/types"
	"github.com/notargets/dnsflux/utils"
)

/*
Discretization is the Gauss-linear finite volume operator set on one mesh.

Implicit operators return an LDUMatrix M and an explicit part K such that the
discrete operator applied to x is M x + K. Explicit operators return fields.
Cell and face loops are split over CellPar and FacePar; each output entry is
written by one worker and no reduction crosses workers, so results do not
depend on the parallel degree.
*/
type Discretization struct {
	Mesh    Mesh
	CellPar *utils.PartitionMap
	FacePar *utils.PartitionMap
}

func NewDiscretization(mesh Mesh, ProcLimit int) (fv *Discretization) {
	fv = &Discretization{
		Mesh:    mesh,
		CellPar: utils.NewPartitionMap(utils.ParallelDegreeFor(ProcLimit, mesh.NCells()), mesh.NCells()),
		FacePar: utils.NewPartitionMap(utils.ParallelDegreeFor(ProcLimit, mesh.NFaces()), mesh.NFaces()),
	}
	return
}

// Ddt is the implicit Euler time derivative: diag V/dt, K = -V/dt * old
func (fv *Discretization) Ddt(old *VectorField, dt float64) (M *LDUMatrix, K [][3]float64) {
	var (
		V = fv.Mesh.Volumes()
	)
	M = NewLDUMatrix(fv.Mesh)
	K = make([][3]float64, fv.Mesh.NCells())
	for c := range V {
		rDeltaT := V[c] / dt
		M.Diag[c] = rDeltaT
		for n := 0; n < 3; n++ {
			K[c][n] = -rDeltaT * old.Internal[c][n]
		}
	}
	return
}

// Div is the convection operator div(phi, U) with linear face interpolation
func (fv *Discretization) Div(phi *SurfaceScalarField, U *VectorField) (M *LDUMatrix, K [][3]float64) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		w         = fv.Mesh.Weights()
	)
	M = NewLDUMatrix(fv.Mesh)
	K = make([][3]float64, fv.Mesh.NCells())
	for f, F := range phi.Values {
		P, N := owner[f], neighbour[f]
		if N < 0 {
			for n := 0; n < 3; n++ {
				K[P][n] += F * U.Boundary[f][n]
			}
			continue
		}
		M.Diag[P] += w[f] * F
		M.Upper[f] += (1 - w[f]) * F
		M.Diag[N] -= (1 - w[f]) * F
		M.Lower[f] -= w[f] * F
	}
	return
}

// LaplacianU is laplacian(nu, U) with fixed value walls
func (fv *Discretization) LaplacianU(nu float64, U *VectorField) (M *LDUMatrix, K [][3]float64) {
	var (
		gammaF = make([]float64, fv.Mesh.NFaces())
	)
	for f := range gammaF {
		gammaF[f] = nu
	}
	M = fv.laplacianMatrix(gammaF, true)
	K = make([][3]float64, fv.Mesh.NCells())
	var (
		owner = fv.Mesh.Owner()
		magSf = fv.Mesh.MagSf()
		delta = fv.Mesh.DeltaCoeffs()
		bc    = fv.Mesh.FaceBC()
	)
	for _, f := range fv.Mesh.BoundaryFaces() {
		if bc[f] != types.BC_Wall {
			continue
		}
		c := nu * magSf[f] * delta[f]
		for n := 0; n < 3; n++ {
			K[owner[f]][n] += c * U.Boundary[f][n]
		}
	}
	return
}

// Laplacian is laplacian(gammaF, p) with zero gradient walls, K is zero
func (fv *Discretization) Laplacian(gammaF []float64) (M *LDUMatrix) {
	return fv.laplacianMatrix(gammaF, false)
}

func (fv *Discretization) laplacianMatrix(gammaF []float64, fixedValueWalls bool) (M *LDUMatrix) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		magSf     = fv.Mesh.MagSf()
		delta     = fv.Mesh.DeltaCoeffs()
	)
	M = NewLDUMatrix(fv.Mesh)
	for f := range owner {
		c := gammaF[f] * magSf[f] * delta[f]
		P, N := owner[f], neighbour[f]
		if N < 0 {
			if fixedValueWalls {
				M.Diag[P] -= c
			}
			continue
		}
		M.Diag[P] -= c
		M.Diag[N] -= c
		M.Upper[f] += c
		M.Lower[f] += c
	}
	return
}

// LaplacianFlux is the face flux gammaF |Sf| (p_N - p_P)/|d| of laplacian(gammaF, p)
func (fv *Discretization) LaplacianFlux(gammaF []float64, p *ScalarField) (flux []float64) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		magSf     = fv.Mesh.MagSf()
		delta     = fv.Mesh.DeltaCoeffs()
	)
	flux = make([]float64, fv.Mesh.NFaces())
	fv.FacePar.Run(func(bn, fMin, fMax int) {
		for f := fMin; f < fMax; f++ {
			N := neighbour[f]
			if N < 0 {
				continue
			}
			flux[f] = gammaF[f] * magSf[f] * delta[f] * (p.Internal[N] - p.Internal[owner[f]])
		}
	})
	return
}

// Interpolate is linear cell to face interpolation, boundary faces take the owner value
func (fv *Discretization) Interpolate(s []float64) (sf []float64) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		w         = fv.Mesh.Weights()
	)
	sf = make([]float64, fv.Mesh.NFaces())
	fv.FacePar.Run(func(bn, fMin, fMax int) {
		for f := fMin; f < fMax; f++ {
			P, N := owner[f], neighbour[f]
			if N < 0 {
				sf[f] = s[P]
				continue
			}
			sf[f] = w[f]*s[P] + (1-w[f])*s[N]
		}
	})
	return
}

// Flux is interpolate(U) & Sf, using the boundary values on boundary faces
func (fv *Discretization) Flux(U *VectorField) (phi []float64) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		w         = fv.Mesh.Weights()
		Sf        = fv.Mesh.Sf()
	)
	phi = make([]float64, fv.Mesh.NFaces())
	fv.FacePar.Run(func(bn, fMin, fMax int) {
		for f := fMin; f < fMax; f++ {
			P, N := owner[f], neighbour[f]
			var Uf [3]float64
			if N < 0 {
				Uf = U.Boundary[f]
			} else {
				for n := 0; n < 3; n++ {
					Uf[n] = w[f]*U.Internal[P][n] + (1-w[f])*U.Internal[N][n]
				}
			}
			phi[f] = Uf[0]*Sf[f][0] + Uf[1]*Sf[f][1] + Uf[2]*Sf[f][2]
		}
	})
	return
}

// SurfaceSum is the net outflow sum(phi) of each cell
func (fv *Discretization) SurfaceSum(phi []float64) (ss []float64) {
	var (
		cellFaces = fv.Mesh.CellFaces()
	)
	ss = make([]float64, fv.Mesh.NCells())
	fv.CellPar.Run(func(bn, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			var sum float64
			for _, fr := range cellFaces[c] {
				sum += fr.Sign * phi[fr.Face]
			}
			ss[c] = sum
		}
	})
	return
}

// DivFlux is fvc::div(phi), the surface sum divided by cell volume
func (fv *Discretization) DivFlux(phi []float64) (div []float64) {
	var (
		V = fv.Mesh.Volumes()
	)
	div = fv.SurfaceSum(phi)
	for c := range div {
		div[c] /= V[c]
	}
	return
}

// Grad is the Gauss linear gradient of p
func (fv *Discretization) Grad(p *ScalarField) (grad [][3]float64) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		w         = fv.Mesh.Weights()
		Sf        = fv.Mesh.Sf()
		V         = fv.Mesh.Volumes()
		cellFaces = fv.Mesh.CellFaces()
	)
	grad = make([][3]float64, fv.Mesh.NCells())
	fv.CellPar.Run(func(bn, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			var g [3]float64
			for _, fr := range cellFaces[c] {
				f := fr.Face
				var pf float64
				if N := neighbour[f]; N < 0 {
					pf = p.Boundary[f]
				} else {
					pf = w[f]*p.Internal[owner[f]] + (1-w[f])*p.Internal[N]
				}
				for n := 0; n < 3; n++ {
					g[n] += fr.Sign * pf * Sf[f][n]
				}
			}
			for n := 0; n < 3; n++ {
				grad[c][n] = g[n] / V[c]
			}
		}
	})
	return
}

// GradU is the Gauss linear gradient of U, gradU[c][i][j] = d(U_j)/d(x_i)
func (fv *Discretization) GradU(U *VectorField) (grad [][3][3]float64) {
	var (
		owner     = fv.Mesh.Owner()
		neighbour = fv.Mesh.Neighbour()
		w         = fv.Mesh.Weights()
		Sf        = fv.Mesh.Sf()
		V         = fv.Mesh.Volumes()
		cellFaces = fv.Mesh.CellFaces()
	)
	grad = make([][3][3]float64, fv.Mesh.NCells())
	fv.CellPar.Run(func(bn, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			var g [3][3]float64
			for _, fr := range cellFaces[c] {
				f := fr.Face
				var Uf [3]float64
				if N := neighbour[f]; N < 0 {
					Uf = U.Boundary[f]
				} else {
					P := owner[f]
					for n := 0; n < 3; n++ {
						Uf[n] = w[f]*U.Internal[P][n] + (1-w[f])*U.Internal[N][n]
					}
				}
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						g[i][j] += fr.Sign * Sf[f][i] * Uf[j]
					}
				}
			}
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					grad[c][i][j] = g[i][j] / V[c]
				}
			}
		}
	})
	return
}

package DNS3D

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/notargets/dnsflux/FV3D"
)

// GlobalProperties are the cell averaged turbulence statistics of one step
type GlobalProperties struct {
	K       float64 // 3/2 mean(|U|^2)
	Epsilon float64 // 0.5 nu mean(|grad U + grad U^T|^2)
	Power   float64 // mean(U . f), the forcing power input
}

func ComputeGlobalProperties(fv *FV3D.Discretization, U *FV3D.VectorField, force [][3]float64, nu float64) (gp GlobalProperties) {
	var (
		nc    = len(U.Internal)
		magSq = make([]float64, nc)
		diss  = make([]float64, nc)
		pow   = make([]float64, nc)
		gradU = fv.GradU(U)
	)
	fv.CellPar.Run(func(bn, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			u := U.Internal[c][:]
			magSq[c] = floats.Dot(u, u)
			pow[c] = floats.Dot(u, force[c][:])
			var s float64
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					sij := gradU[c][i][j] + gradU[c][j][i]
					s += sij * sij
				}
			}
			diss[c] = s
		}
	})
	gp.K = 1.5 * stat.Mean(magSq, nil)
	gp.Epsilon = 0.5 * nu * stat.Mean(diss, nil)
	gp.Power = stat.Mean(pow, nil)
	return
}

package spectral

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/notargets/dnsflux/utils"
)

/*
FFT3D transforms complex data stored row-major over (i, j, k) one axis at a
time. The lines of each axis are split over workers, every worker owns its own
1D plan and line buffer since fourier plans carry scratch space.

Forward is normalized by 1/N so its output is the physical mode amplitude,
Inverse is the unnormalized synthesis, and the two are an exact pair.
*/
type FFT3D struct {
	N       [3]int
	NTotal  int
	strides [3]int
	par     [3]*utils.PartitionMap // Line partitions per axis
	plans   [3][]*fourier.CmplxFFT // Plan per axis per worker
	lines   [3][][]complex128      // Line buffer per axis per worker
}

func NewFFT3D(N [3]int, ProcLimit int) (ft *FFT3D) {
	ft = &FFT3D{
		N:      N,
		NTotal: N[0] * N[1] * N[2],
	}
	ft.strides = [3]int{N[1] * N[2], N[2], 1}
	for d := 0; d < 3; d++ {
		nLines := ft.NTotal / N[d]
		ft.par[d] = utils.NewPartitionMap(utils.ParallelDegreeFor(ProcLimit, nLines), nLines)
		np := ft.par[d].ParallelDegree
		ft.plans[d] = make([]*fourier.CmplxFFT, np)
		ft.lines[d] = make([][]complex128, np)
		for bn := 0; bn < np; bn++ {
			ft.plans[d][bn] = fourier.NewCmplxFFT(N[d])
			ft.lines[d][bn] = make([]complex128, N[d])
		}
	}
	return
}

// Forward returns X = (1/N) sum_x x exp(-i k.x)
func (ft *FFT3D) Forward(x []complex128) (X []complex128) {
	X = make([]complex128, ft.NTotal)
	copy(X, x)
	ft.transform(X, true)
	scale := complex(1/float64(ft.NTotal), 0)
	for i := range X {
		X[i] *= scale
	}
	return
}

// Inverse returns x = sum_k X exp(+i k.x)
func (ft *FFT3D) Inverse(X []complex128) (x []complex128) {
	x = make([]complex128, ft.NTotal)
	copy(x, X)
	ft.transform(x, false)
	return
}

func (ft *FFT3D) transform(data []complex128, forward bool) {
	if len(data) != ft.NTotal {
		panic("FFT3D: data length does not match the grid")
	}
	for d := 0; d < 3; d++ {
		if ft.N[d] == 1 {
			continue
		}
		var (
			n      = ft.N[d]
			stride = ft.strides[d]
		)
		ft.par[d].Run(func(bn, lMin, lMax int) {
			var (
				plan = ft.plans[d][bn]
				line = ft.lines[d][bn]
			)
			for l := lMin; l < lMax; l++ {
				// Line l is (outer, inner) with inner < stride
				base := (l/stride)*n*stride + l%stride
				for i := 0; i < n; i++ {
					line[i] = data[base+i*stride]
				}
				if forward {
					plan.Coefficients(line, line)
				} else {
					plan.Sequence(line, line)
				}
				for i := 0; i < n; i++ {
					data[base+i*stride] = line[i]
				}
			}
		})
	}
}

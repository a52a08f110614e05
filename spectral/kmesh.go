package spectral

import (
	"fmt"
	"math"

	"github.com/notargets/dnsflux/FV3D"
)

// KEpsilon floors |k| when forming unit wavevectors, the mean mode gets khat = 0
const KEpsilon = 1.e-6

/*
Kmesh holds the wavevector of every Fourier mode of a structured box, in the
same row-major (i, j, k) order as the cells. Grid index i of a direction with
n points maps to the signed integer wavenumber m = i for 2i < n, m = i - n
otherwise, and k = 2 pi m / L.
*/
type Kmesh struct {
	N   [3]int
	L   [3]float64
	M   [][3]int     // Integer wavenumber triple
	K   [][3]float64 // Wavevector
	Mag []float64    // |K|
}

func NewKmesh(box FV3D.StructuredBox) (km *Kmesh) {
	for d := 0; d < 3; d++ {
		if box.N[d] < 1 || box.L[d] <= 0 {
			panic(fmt.Errorf("wavenumber mesh needs a non-degenerate box, have N = %v, L = %v", box.N, box.L))
		}
	}
	var (
		NModes = box.NCells()
	)
	km = &Kmesh{
		N:   box.N,
		L:   box.L,
		M:   make([][3]int, NModes),
		K:   make([][3]float64, NModes),
		Mag: make([]float64, NModes),
	}
	for c := 0; c < NModes; c++ {
		var ijk [3]int
		ijk[0], ijk[1], ijk[2] = box.CellIJK(c)
		var mag2 float64
		for d := 0; d < 3; d++ {
			m := SignedIndex(ijk[d], box.N[d])
			km.M[c][d] = m
			km.K[c][d] = 2 * math.Pi * float64(m) / box.L[d]
			mag2 += km.K[c][d] * km.K[c][d]
		}
		km.Mag[c] = math.Sqrt(mag2)
	}
	return
}

// KmeshFromMesh panics unless the mesh is a structured box
func KmeshFromMesh(mesh FV3D.Mesh) *Kmesh {
	box, ok := mesh.Box()
	if !ok {
		panic(fmt.Errorf("spectral forcing requires a structured box mesh"))
	}
	return NewKmesh(box)
}

// SignedIndex is the FFT storage order wavenumber of grid index i
func SignedIndex(i, n int) int {
	if 2*i < n {
		return i
	}
	return i - n
}

func (km *Kmesh) NModes() int { return len(km.Mag) }

func (km *Kmesh) Khat(mode int) (khat [3]float64) {
	den := math.Max(km.Mag[mode], KEpsilon)
	for d := 0; d < 3; d++ {
		khat[d] = km.K[mode][d] / den
	}
	return
}

// IntegerMag2 is |m|^2 of a mode in units of the fundamental wavenumber
func (km *Kmesh) IntegerMag2(mode int) float64 {
	m := km.M[mode]
	return float64(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
}

package spectral

import (
	"math"
)

// EnergySpectrum is E(k) summed over spherical shells of unit width in units
// of the smallest fundamental wavenumber
type EnergySpectrum struct {
	K []float64
	E []float64
}

// Total is the shell sum, equal to 0.5 mean(|U|^2) of the transformed field
func (es EnergySpectrum) Total() (sum float64) {
	for _, e := range es.E {
		sum += e
	}
	return
}

// EnergySpectrum transforms the velocity per component and bins 0.5 |U_k|^2
// by the nearest shell of |k|
func (pr *Projector) EnergySpectrum(U [][3]float64) (es EnergySpectrum) {
	var (
		km     = pr.K
		n      = km.NModes()
		kf     = math.Inf(1)
		comp   = make([]complex128, n)
		energy = make([]float64, n)
	)
	for d := 0; d < 3; d++ {
		kf = math.Min(kf, 2*math.Pi/km.L[d])
	}
	for d := 0; d < 3; d++ {
		for c := range U {
			comp[c] = complex(U[c][d], 0)
		}
		X := pr.FFT.Forward(comp)
		for mode, x := range X {
			energy[mode] += 0.5 * (real(x)*real(x) + imag(x)*imag(x))
		}
	}
	var nShells int
	shell := make([]int, n)
	for mode := range shell {
		shell[mode] = int(math.Round(km.Mag[mode] / kf))
		if shell[mode]+1 > nShells {
			nShells = shell[mode] + 1
		}
	}
	es.K = make([]float64, nShells)
	es.E = make([]float64, nShells)
	for s := range es.K {
		es.K[s] = float64(s) * kf
	}
	for mode, e := range energy {
		es.E[shell[mode]] += e
	}
	return
}

// Columns lets the spectrum be written as a two column graph
func (es EnergySpectrum) Columns() (x, y []float64) { return es.K, es.E }

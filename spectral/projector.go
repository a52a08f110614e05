package spectral

import (
	"fmt"
)

type ProjectionType uint8

const (
	ProjectSolenoidal ProjectionType = iota // F - (F.khat) khat
	ProjectCurl                             // khat x F
)

var ProjectionNameMap = map[string]ProjectionType{
	"project": ProjectSolenoidal,
	"cross":   ProjectCurl,
}

func (pt ProjectionType) String() string {
	switch pt {
	case ProjectSolenoidal:
		return "project"
	case ProjectCurl:
		return "cross"
	}
	return fmt.Sprintf("ProjectionType(%d)", uint8(pt))
}

func NewProjectionType(name string) (pt ProjectionType, err error) {
	var ok bool
	if name == "" {
		return ProjectSolenoidal, nil
	}
	if pt, ok = ProjectionNameMap[name]; !ok {
		err = fmt.Errorf("%w: ForcingProjection must be project or cross, have %q", ErrConfiguration, name)
	}
	return
}

// Projector makes wavenumber space vector fields divergence free and brings
// them back to physical space
type Projector struct {
	K    *Kmesh
	FFT  *FFT3D
	Type ProjectionType
}

func NewProjector(K *Kmesh, pt ProjectionType, ProcLimit int) *Projector {
	return &Projector{
		K:    K,
		FFT:  NewFFT3D(K.N, ProcLimit),
		Type: pt,
	}
}

// Apply uses the configured projection
func (pr *Projector) Apply(F [][3]complex128) [][3]complex128 {
	switch pr.Type {
	case ProjectCurl:
		return pr.Curl(F)
	default:
		return pr.ProjectSolenoidal(F)
	}
}

// ProjectSolenoidal removes the component of F along khat in every mode. The
// dot product is not conjugated, khat being real.
func (pr *Projector) ProjectSolenoidal(F [][3]complex128) (P [][3]complex128) {
	P = make([][3]complex128, len(F))
	for mode, f := range F {
		khat := pr.K.Khat(mode)
		var dot complex128
		for d := 0; d < 3; d++ {
			dot += f[d] * complex(khat[d], 0)
		}
		for d := 0; d < 3; d++ {
			P[mode][d] = f[d] - dot*complex(khat[d], 0)
		}
	}
	return
}

// Curl is khat x F per mode, orthogonal to k by construction
func (pr *Projector) Curl(F [][3]complex128) (P [][3]complex128) {
	P = make([][3]complex128, len(F))
	for mode, f := range F {
		kh := pr.K.Khat(mode)
		k := [3]complex128{complex(kh[0], 0), complex(kh[1], 0), complex(kh[2], 0)}
		P[mode] = [3]complex128{
			k[1]*f[2] - k[2]*f[1],
			k[2]*f[0] - k[0]*f[2],
			k[0]*f[1] - k[1]*f[0],
		}
	}
	return
}

// PhysicalForce inverse transforms each component and keeps Re + Im per point
func (pr *Projector) PhysicalForce(F [][3]complex128) (f [][3]float64) {
	var (
		n    = len(F)
		comp = make([]complex128, n)
	)
	f = make([][3]float64, n)
	for d := 0; d < 3; d++ {
		for mode := range F {
			comp[mode] = F[mode][d]
		}
		x := pr.FFT.Inverse(comp)
		for c, v := range x {
			f[c][d] = real(v) + imag(v)
		}
	}
	return
}

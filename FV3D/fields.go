package FV3D

import (
	"github.com/notargets/dnsflux/types"
	"github.com/notargets/dnsflux/utils"
)

// ScalarField holds one value per cell and one per face; the face values are
// only meaningful on boundary faces, where they are set by
// CorrectBoundaryConditions
type ScalarField struct {
	Name     string
	Internal []float64
	Boundary []float64
	mesh     Mesh
}

func NewScalarField(name string, mesh Mesh) (sf *ScalarField) {
	sf = &ScalarField{
		Name:     name,
		Internal: make([]float64, mesh.NCells()),
		Boundary: make([]float64, mesh.NFaces()),
		mesh:     mesh,
	}
	return
}

func (sf *ScalarField) Mesh() Mesh { return sf.mesh }

// CorrectBoundaryConditions applies zero normal gradient on walls
func (sf *ScalarField) CorrectBoundaryConditions() {
	var (
		owner = sf.mesh.Owner()
		bc    = sf.mesh.FaceBC()
	)
	for _, f := range sf.mesh.BoundaryFaces() {
		switch bc[f] {
		case types.BC_Wall:
			sf.Boundary[f] = sf.Internal[owner[f]]
		}
	}
}

func (sf *ScalarField) Finite() bool {
	return utils.IsFinite(sf.Internal) && utils.IsFinite(sf.Boundary)
}

func (sf *ScalarField) Copy() (R *ScalarField) {
	R = &ScalarField{
		Name:     sf.Name,
		Internal: append([]float64(nil), sf.Internal...),
		Boundary: append([]float64(nil), sf.Boundary...),
		mesh:     sf.mesh,
	}
	return
}

// VectorField holds a 3-vector per cell and per boundary face
type VectorField struct {
	Name     string
	Internal [][3]float64
	Boundary [][3]float64
	mesh     Mesh
}

func NewVectorField(name string, mesh Mesh) (vf *VectorField) {
	vf = &VectorField{
		Name:     name,
		Internal: make([][3]float64, mesh.NCells()),
		Boundary: make([][3]float64, mesh.NFaces()),
		mesh:     mesh,
	}
	return
}

func (vf *VectorField) Mesh() Mesh { return vf.mesh }

// CorrectBoundaryConditions applies no-slip on walls
func (vf *VectorField) CorrectBoundaryConditions() {
	var (
		bc = vf.mesh.FaceBC()
	)
	for _, f := range vf.mesh.BoundaryFaces() {
		switch bc[f] {
		case types.BC_Wall:
			vf.Boundary[f] = [3]float64{}
		}
	}
}

func (vf *VectorField) Finite() bool {
	return utils.IsFinite(vf.Internal) && utils.IsFinite(vf.Boundary)
}

func (vf *VectorField) Copy() (R *VectorField) {
	R = &VectorField{
		Name:     vf.Name,
		Internal: append([][3]float64(nil), vf.Internal...),
		Boundary: append([][3]float64(nil), vf.Boundary...),
		mesh:     vf.mesh,
	}
	return
}

// Component copies direction n of the cell values into dst
func (vf *VectorField) Component(n int, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(vf.Internal))
	}
	for i, v := range vf.Internal {
		dst[i] = v[n]
	}
	return dst
}

func (vf *VectorField) SetComponent(n int, src []float64) {
	for i := range vf.Internal {
		vf.Internal[i][n] = src[i]
	}
}

// SurfaceScalarField holds one value per face, the volumetric face flux phi
// being the main instance
type SurfaceScalarField struct {
	Name   string
	Values []float64
	mesh   Mesh
}

func NewSurfaceScalarField(name string, mesh Mesh) (ss *SurfaceScalarField) {
	ss = &SurfaceScalarField{
		Name:   name,
		Values: make([]float64, mesh.NFaces()),
		mesh:   mesh,
	}
	return
}

func (ss *SurfaceScalarField) Mesh() Mesh { return ss.mesh }

func (ss *SurfaceScalarField) Finite() bool { return utils.IsFinite(ss.Values) }

func (ss *SurfaceScalarField) Copy() (R *SurfaceScalarField) {
	R = &SurfaceScalarField{
		Name:   ss.Name,
		Values: append([]float64(nil), ss.Values...),
		mesh:   ss.mesh,
	}
	return
}

package FV3D

import (
	"fmt"

	"github.com/notargets/dnsflux/types"
)

// Mesh is the geometric and topological view of a finite volume mesh used
// by the operators. Returned slices are shared and must not be modified.
type Mesh interface {
	NCells() int
	NFaces() int
	Volumes() []float64
	Centres() [][3]float64
	// Sf is the face area vector, oriented from owner to neighbour (outward for
	// boundary faces)
	Sf() [][3]float64
	MagSf() []float64
	Owner() []int
	// Neighbour is -1 for boundary faces
	Neighbour() []int
	// DeltaCoeffs is 1/|d|, d being the owner-neighbour (or owner-face) distance
	DeltaCoeffs() []float64
	// Weights is the owner weight of linear interpolation
	Weights() []float64
	FaceBC() []types.BCFLAG
	CellFaces() [][]FaceRef
	BoundaryFaces() []int
	// Box describes the mesh as a structured box if it is one
	Box() (box StructuredBox, ok bool)
}

// FaceRef is one face of a cell, Sign is +1 when the cell owns the face
type FaceRef struct {
	Face int
	Sign float64
}

// StructuredBox describes a uniform box of N[0] x N[1] x N[2] cells whose cell
// index is row-major over (i, j, k)
type StructuredBox struct {
	N      [3]int
	L      [3]float64
	Walls  [3]bool
	Origin [3]float64
}

func (sb StructuredBox) NCells() int { return sb.N[0] * sb.N[1] * sb.N[2] }

func (sb StructuredBox) CellIndex(i, j, k int) int {
	return (i*sb.N[1]+j)*sb.N[2] + k
}

func (sb StructuredBox) CellIJK(c int) (i, j, k int) {
	k = c % sb.N[2]
	j = (c / sb.N[2]) % sb.N[1]
	i = c / (sb.N[1] * sb.N[2])
	return
}

func (sb StructuredBox) Spacing() (h [3]float64) {
	for d := 0; d < 3; d++ {
		h[d] = sb.L[d] / float64(sb.N[d])
	}
	return
}

type BoxMesh struct {
	box         StructuredBox
	volumes     []float64
	centres     [][3]float64
	sf          [][3]float64
	magSf       []float64
	owner       []int
	neighbour   []int
	deltaCoeffs []float64
	weights     []float64
	faceBC      []types.BCFLAG
	cellFaces   [][]FaceRef
	bFaces      []int
}

// NewBoxMesh builds a uniform hexahedral box. Directions with Walls[d] false
// are periodic.
func NewBoxMesh(box StructuredBox) (m *BoxMesh, err error) {
	for d := 0; d < 3; d++ {
		if box.N[d] < 1 {
			err = fmt.Errorf("box mesh needs at least one cell per direction, have N = %v", box.N)
			return
		}
		if box.L[d] <= 0 {
			err = fmt.Errorf("box mesh lengths must be positive, have L = %v", box.L)
			return
		}
	}
	var (
		NC = box.NCells()
		h  = box.Spacing()
		A  = [3]float64{h[1] * h[2], h[0] * h[2], h[0] * h[1]}
		V  = h[0] * h[1] * h[2]
	)
	m = &BoxMesh{
		box:       box,
		volumes:   make([]float64, NC),
		centres:   make([][3]float64, NC),
		cellFaces: make([][]FaceRef, NC),
	}
	for c := 0; c < NC; c++ {
		i, j, k := box.CellIJK(c)
		m.volumes[c] = V
		m.centres[c] = [3]float64{
			box.Origin[0] + (float64(i)+0.5)*h[0],
			box.Origin[1] + (float64(j)+0.5)*h[1],
			box.Origin[2] + (float64(k)+0.5)*h[2],
		}
	}
	addFace := func(owner, neighbour, dir int, sign float64, bc types.BCFLAG) {
		f := len(m.owner)
		var sf [3]float64
		sf[dir] = sign * A[dir]
		m.sf = append(m.sf, sf)
		m.magSf = append(m.magSf, A[dir])
		m.owner = append(m.owner, owner)
		m.neighbour = append(m.neighbour, neighbour)
		m.faceBC = append(m.faceBC, bc)
		if neighbour < 0 {
			m.deltaCoeffs = append(m.deltaCoeffs, 2/h[dir])
			m.weights = append(m.weights, 1)
			m.bFaces = append(m.bFaces, f)
		} else {
			m.deltaCoeffs = append(m.deltaCoeffs, 1/h[dir])
			m.weights = append(m.weights, 0.5)
		}
		m.cellFaces[owner] = append(m.cellFaces[owner], FaceRef{f, 1})
		if neighbour >= 0 {
			m.cellFaces[neighbour] = append(m.cellFaces[neighbour], FaceRef{f, -1})
		}
	}
	// Faces on the + side of every cell, then the - side walls
	for dir := 0; dir < 3; dir++ {
		for c := 0; c < NC; c++ {
			ijk := [3]int{}
			ijk[0], ijk[1], ijk[2] = box.CellIJK(c)
			last := ijk[dir] == box.N[dir]-1
			switch {
			case last && box.Walls[dir]:
				addFace(c, -1, dir, 1, types.BC_Wall)
			case last:
				ijk[dir] = 0
				addFace(c, box.CellIndex(ijk[0], ijk[1], ijk[2]), dir, 1, types.BC_Periodic)
			default:
				ijk[dir]++
				addFace(c, box.CellIndex(ijk[0], ijk[1], ijk[2]), dir, 1, types.BC_None)
			}
		}
	}
	for dir := 0; dir < 3; dir++ {
		if !box.Walls[dir] {
			continue
		}
		for c := 0; c < NC; c++ {
			ijk := [3]int{}
			ijk[0], ijk[1], ijk[2] = box.CellIJK(c)
			if ijk[dir] == 0 {
				addFace(c, -1, dir, -1, types.BC_Wall)
			}
		}
	}
	return
}

func (m *BoxMesh) NCells() int                       { return len(m.volumes) }
func (m *BoxMesh) NFaces() int                       { return len(m.owner) }
func (m *BoxMesh) Volumes() []float64                { return m.volumes }
func (m *BoxMesh) Centres() [][3]float64             { return m.centres }
func (m *BoxMesh) Sf() [][3]float64                  { return m.sf }
func (m *BoxMesh) MagSf() []float64                  { return m.magSf }
func (m *BoxMesh) Owner() []int                      { return m.owner }
func (m *BoxMesh) Neighbour() []int                  { return m.neighbour }
func (m *BoxMesh) DeltaCoeffs() []float64            { return m.deltaCoeffs }
func (m *BoxMesh) Weights() []float64                { return m.weights }
func (m *BoxMesh) FaceBC() []types.BCFLAG            { return m.faceBC }
func (m *BoxMesh) CellFaces() [][]FaceRef            { return m.cellFaces }
func (m *BoxMesh) BoundaryFaces() []int              { return m.bFaces }
func (m *BoxMesh) Box() (box StructuredBox, ok bool) { return m.box, true }

// TotalVolume is summed in cell order
func TotalVolume(mesh Mesh) (vol float64) {
	for _, v := range mesh.Volumes() {
		vol += v
	}
	return
}

func (m *BoxMesh) PrintStatistics() {
	fmt.Printf("Box mesh: %d x %d x %d cells, L = %v, walls = %v\n",
		m.box.N[0], m.box.N[1], m.box.N[2], m.box.L, m.box.Walls)
	fmt.Printf("Cells = %d, Faces = %d, Boundary faces = %d\n",
		m.NCells(), m.NFaces(), len(m.bFaces))
}

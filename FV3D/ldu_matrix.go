package FV3D

import (
	"fmt"
	"sort"

	"github.com/notargets/dnsflux/utils"
)

/*
LDUMatrix stores a finite volume operator in face addressing:

	Diag[c]  coefficient of cell c in row c
	Upper[f] coefficient of the neighbour value in the owner row of face f
	Lower[f] coefficient of the owner value in the neighbour row of face f

Boundary faces carry no off-diagonal coefficients. The matrix is assembled by
accumulating operator contributions, then treated as immutable; the CSR form
used by the Krylov solvers is built once on first use.
*/
type LDUMatrix struct {
	Diag, Lower, Upper []float64
	mesh               Mesh
	csr                *utils.CSR
}

func NewLDUMatrix(mesh Mesh) *LDUMatrix {
	return &LDUMatrix{
		Diag:  make([]float64, mesh.NCells()),
		Lower: make([]float64, mesh.NFaces()),
		Upper: make([]float64, mesh.NFaces()),
		mesh:  mesh,
	}
}

func (m *LDUMatrix) Mesh() Mesh { return m.mesh }

// AddMatrix accumulates B into m
func (m *LDUMatrix) AddMatrix(B *LDUMatrix) {
	m.AddScaled(B, 1)
}

// AddScaled accumulates s*B into m
func (m *LDUMatrix) AddScaled(B *LDUMatrix, s float64) {
	if len(B.Diag) != len(m.Diag) || len(B.Upper) != len(m.Upper) {
		panic(fmt.Errorf("LDU size mismatch"))
	}
	for i := range m.Diag {
		m.Diag[i] += s * B.Diag[i]
	}
	for f := range m.Upper {
		m.Upper[f] += s * B.Upper[f]
		m.Lower[f] += s * B.Lower[f]
	}
	m.csr = nil
}

func (m *LDUMatrix) Negate() {
	for i := range m.Diag {
		m.Diag[i] = -m.Diag[i]
	}
	for f := range m.Upper {
		m.Upper[f], m.Lower[f] = -m.Upper[f], -m.Lower[f]
	}
	m.csr = nil
}

// Symmetric is true when every face has equal upper and lower coefficients
func (m *LDUMatrix) Symmetric() bool {
	for f := range m.Upper {
		if m.Upper[f] != m.Lower[f] {
			return false
		}
	}
	return true
}

// SetReference pins the value of cell c, making a singular Neumann/periodic
// operator non-singular without changing its solution up to a constant
func (m *LDUMatrix) SetReference(c int, value float64, source []float64) {
	source[c] += m.Diag[c] * value
	m.Diag[c] += m.Diag[c]
	m.csr = nil
}

// CSR returns the compressed row form of the matrix. Each row lists its
// columns in increasing order, with coefficients of repeated columns summed
// in cell face order, so products do not depend on how the rows were built.
func (m *LDUMatrix) CSR() utils.CSR {
	if m.csr != nil {
		return *m.csr
	}
	type entry struct {
		col int
		val float64
	}
	var (
		nc        = len(m.Diag)
		owner     = m.mesh.Owner()
		neighbour = m.mesh.Neighbour()
		cellFaces = m.mesh.CellFaces()
		ia        = make([]int, nc+1)
		ja        = make([]int, 0, 7*nc)
		data      = make([]float64, 0, 7*nc)
		row       = make([]entry, 0, 7)
	)
	for c := 0; c < nc; c++ {
		row = append(row[:0], entry{c, m.Diag[c]})
		for _, fr := range cellFaces[c] {
			f := fr.Face
			if neighbour[f] < 0 {
				continue
			}
			if fr.Sign > 0 {
				row = append(row, entry{neighbour[f], m.Upper[f]})
			} else {
				row = append(row, entry{owner[f], m.Lower[f]})
			}
		}
		sort.SliceStable(row, func(i, j int) bool { return row[i].col < row[j].col })
		for i, e := range row {
			if i > 0 && e.col == ja[len(ja)-1] {
				data[len(data)-1] += e.val
				continue
			}
			ja = append(ja, e.col)
			data = append(data, e.val)
		}
		ia[c+1] = len(ja)
	}
	csr := utils.NewCSR("LDU", nc, nc, ia, ja, data)
	m.csr = &csr
	return csr
}

// NegSumOffDiag sets dst[c] = -sum_{n != c} a_cn x_n for cells in [kMin, kMax)
func (m *LDUMatrix) NegSumOffDiag(dst, x []float64, kMin, kMax int) {
	var (
		owner     = m.mesh.Owner()
		neighbour = m.mesh.Neighbour()
		cellFaces = m.mesh.CellFaces()
	)
	for c := kMin; c < kMax; c++ {
		var sum float64
		for _, fr := range cellFaces[c] {
			f := fr.Face
			if neighbour[f] < 0 {
				continue
			}
			if fr.Sign > 0 {
				sum -= m.Upper[f] * x[neighbour[f]]
			} else {
				sum -= m.Lower[f] * x[owner[f]]
			}
		}
		dst[c] = sum
	}
}

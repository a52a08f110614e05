package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// CSR is the product form of a sparse operator
type CSR struct {
	M    *sparse.CSR
	name string
}

// NewCSR wraps row compressed arrays. Columns within a row must be strictly
// increasing, which fixes the summation order of every row product.
func NewCSR(name string, nr, nc int, ia, ja []int, data []float64) CSR {
	if len(ia) != nr+1 || len(ja) != len(data) || ia[nr] != len(ja) {
		panic(fmt.Errorf("malformed CSR %q: %d rows, %d row pointers, %d columns, %d values",
			name, nr, len(ia), len(ja), len(data)))
	}
	for i := 0; i < nr; i++ {
		for k := ia[i]; k < ia[i+1]; k++ {
			if ja[k] < 0 || ja[k] >= nc || (k > ia[i] && ja[k] <= ja[k-1]) {
				panic(fmt.Errorf("CSR %q row %d: columns must be increasing and in [0, %d)", name, i, nc))
			}
		}
	}
	return CSR{
		M:    sparse.NewCSR(nr, nc, ia, ja, data),
		name: name,
	}
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }

// MulVec sets dst = M * x
func (m CSR) MulVec(dst, x []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(dst) != nr || len(x) != nc {
		panic(fmt.Errorf("dimension mismatch in CSR product %q: (%d x %d) * [%d] -> [%d]",
			m.name, nr, nc, len(x), len(dst)))
	}
	for i := range dst {
		dst[i] = 0
	}
	m.M.MulVecTo(dst, false, x)
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Name lookup
		bc, err := NewBCFLAG("cyclic")
		assert.NoError(t, err)
		assert.Equal(t, BC_Periodic, bc)
		bc, err = NewBCFLAG("wall")
		assert.NoError(t, err)
		assert.Equal(t, BC_Wall, bc)
		_, err = NewBCFLAG("inflow")
		assert.ErrorIs(t, err, ErrConfiguration)
	}
	{ // Only walls terminate the mesh
		assert.True(t, BC_Wall.IsBoundary())
		assert.False(t, BC_Periodic.IsBoundary())
		assert.False(t, BC_None.IsBoundary())
		assert.Equal(t, "BC_Wall", BC_Wall.String())
		assert.Equal(t, "BCFLAG(9)", BCFLAG(9).String())
	}
}

package types

import "fmt"

type BCFLAG uint8

const (
	BC_None     BCFLAG = iota
	BC_Periodic        // Face is an interior face joining opposite sides of the box
	BC_Wall            // No-slip, impermeable, zero normal pressure gradient
)

var BCNameMap = map[string]BCFLAG{
	"none":     BC_None,
	"periodic": BC_Periodic,
	"cyclic":   BC_Periodic,
	"wall":     BC_Wall,
	"noslip":   BC_Wall,
}

func (bc BCFLAG) String() string {
	switch bc {
	case BC_None:
		return "BC_None"
	case BC_Periodic:
		return "BC_Periodic"
	case BC_Wall:
		return "BC_Wall"
	}
	return fmt.Sprintf("BCFLAG(%d)", uint8(bc))
}

// IsBoundary reports whether faces carrying the flag have no neighbour cell
func (bc BCFLAG) IsBoundary() bool {
	return bc == BC_Wall
}

func NewBCFLAG(name string) (bc BCFLAG, err error) {
	var ok bool
	if bc, ok = BCNameMap[name]; !ok {
		err = fmt.Errorf("%w: unknown boundary condition name %q", ErrConfiguration, name)
	}
	return
}

package output

import (
	"errors"
	"fmt"

	"github.com/notargets/dnsflux/utils"
)

var ErrNonFinite = errors.New("non-finite value")

// Sink receives checkpoint fields and diagnostic time series
type Sink interface {
	WriteField(timeName, name string, data any) error
	AppendSeries(name string, time, value float64) error
	Close() error
}

// Source reads back what a Sink wrote, for restart
type Source interface {
	ReadField(timeName, name string, dst any) error
	LatestTime() (timeName string, err error)
}

// Graph is written as a two column table rather than as a binary field
type Graph interface {
	Columns() (x, y []float64)
}

// Finite is implemented by field types that can check their own values
type Finite interface {
	Finite() bool
}

func checkFinite(name string, data any) (err error) {
	var ok = true
	switch v := data.(type) {
	case Finite:
		ok = v.Finite()
	case Graph:
		x, y := v.Columns()
		ok = utils.IsFinite(x) && utils.IsFinite(y)
	case float64, []float64, [][3]float64, []complex128, [][3]complex128:
		ok = utils.IsFinite(v)
	}
	if !ok {
		err = fmt.Errorf("%w in %s", ErrNonFinite, name)
	}
	return
}

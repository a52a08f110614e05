package output

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

type Point struct {
	Time, Value float64
}

// Memory keeps everything in memory. Fields are stored gob encoded so later
// mutation of the written value does not change the snapshot.
type Memory struct {
	Fields map[string]map[string][]byte // time name, field name
	Graphs map[string]map[string][2][]float64
	Series map[string][]Point
	Closed bool
}

func NewMemory() *Memory {
	return &Memory{
		Fields: make(map[string]map[string][]byte),
		Graphs: make(map[string]map[string][2][]float64),
		Series: make(map[string][]Point),
	}
}

func (m *Memory) WriteField(timeName, name string, data any) (err error) {
	if err = checkFinite(name, data); err != nil {
		return
	}
	if g, ok := data.(Graph); ok {
		if m.Graphs[timeName] == nil {
			m.Graphs[timeName] = make(map[string][2][]float64)
		}
		x, y := g.Columns()
		m.Graphs[timeName][name] = [2][]float64{
			append([]float64(nil), x...),
			append([]float64(nil), y...),
		}
		return
	}
	var buf bytes.Buffer
	if err = gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("writing %s at %s: %w", name, timeName, err)
	}
	if m.Fields[timeName] == nil {
		m.Fields[timeName] = make(map[string][]byte)
	}
	m.Fields[timeName][name] = buf.Bytes()
	return
}

func (m *Memory) AppendSeries(name string, time, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w in series %s at time %g", ErrNonFinite, name, time)
	}
	m.Series[name] = append(m.Series[name], Point{time, value})
	return nil
}

func (m *Memory) ReadField(timeName, name string, dst any) (err error) {
	data, ok := m.Fields[timeName][name]
	if !ok {
		return fmt.Errorf("field %s at %s: %w", name, timeName, os.ErrNotExist)
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(dst)
}

func (m *Memory) LatestTime() (timeName string, err error) {
	names := m.Times()
	if len(names) == 0 {
		return "", fmt.Errorf("no checkpoint in memory: %w", os.ErrNotExist)
	}
	return names[len(names)-1], nil
}

// Times lists the written time names in increasing order
func (m *Memory) Times() (names []string) {
	for t := range m.Fields {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := strconv.ParseFloat(names[i], 64)
		b, _ := strconv.ParseFloat(names[j], 64)
		return a < b
	})
	return
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}

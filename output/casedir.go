package output

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ghodss/yaml"
)

/*
CaseDir lays a run out on disk:

	<Dir>/controlDict.yaml          run metadata, written once
	<Dir>/<time>/<name>.gob         checkpoint fields
	<Dir>/graphs/<time>/<name>.dat  two column graphs
	<Dir>/postProcessing/<name>.dat time series, appended per step

Every write opens, writes and closes its file.
*/
type CaseDir struct {
	Dir string
}

func NewCaseDir(dir string) (cd *CaseDir, err error) {
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	cd = &CaseDir{Dir: dir}
	return
}

func (cd *CaseDir) WriteMetadata(meta any) (err error) {
	var data []byte
	if data, err = yaml.Marshal(meta); err != nil {
		return
	}
	return os.WriteFile(filepath.Join(cd.Dir, "controlDict.yaml"), data, 0644)
}

func (cd *CaseDir) ReadMetadata(meta any) (err error) {
	var data []byte
	if data, err = os.ReadFile(filepath.Join(cd.Dir, "controlDict.yaml")); err != nil {
		return
	}
	return yaml.Unmarshal(data, meta)
}

func (cd *CaseDir) WriteField(timeName, name string, data any) (err error) {
	if err = checkFinite(name, data); err != nil {
		return
	}
	if g, ok := data.(Graph); ok {
		return cd.writeGraph(timeName, name, g)
	}
	dir := filepath.Join(cd.Dir, timeName)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	f, err := os.Create(filepath.Join(dir, name+".gob"))
	if err != nil {
		return
	}
	defer f.Close()
	if err = gob.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("writing %s at %s: %w", name, timeName, err)
	}
	return f.Close()
}

func (cd *CaseDir) writeGraph(timeName, name string, g Graph) (err error) {
	dir := filepath.Join(cd.Dir, "graphs", timeName)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	f, err := os.Create(filepath.Join(dir, name+".dat"))
	if err != nil {
		return
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	x, y := g.Columns()
	for i := range x {
		fmt.Fprintf(w, "%.10g\t%.10g\n", x[i], y[i])
	}
	if err = w.Flush(); err != nil {
		return
	}
	return f.Close()
}

func (cd *CaseDir) AppendSeries(name string, time, value float64) (err error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w in series %s at time %g", ErrNonFinite, name, time)
	}
	dir := filepath.Join(cd.Dir, "postProcessing")
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	fileName := filepath.Join(dir, name+".dat")
	_, statErr := os.Stat(fileName)
	f, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	if os.IsNotExist(statErr) {
		fmt.Fprintf(f, "# Time\t%s\n", name)
	}
	if _, err = fmt.Fprintf(f, "%.10g\t%.10g\n", time, value); err != nil {
		return
	}
	return f.Close()
}

func (cd *CaseDir) ReadField(timeName, name string, dst any) (err error) {
	f, err := os.Open(filepath.Join(cd.Dir, timeName, name+".gob"))
	if err != nil {
		return
	}
	defer f.Close()
	if err = gob.NewDecoder(f).Decode(dst); err != nil {
		err = fmt.Errorf("reading %s at %s: %w", name, timeName, err)
	}
	return
}

// LatestTime is the largest time directory holding checkpoint fields
func (cd *CaseDir) LatestTime() (timeName string, err error) {
	entries, err := os.ReadDir(cd.Dir)
	if err != nil {
		return
	}
	latest := math.Inf(-1)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t, perr := strconv.ParseFloat(e.Name(), 64)
		if perr != nil {
			continue
		}
		gobs, _ := filepath.Glob(filepath.Join(cd.Dir, e.Name(), "*.gob"))
		if len(gobs) == 0 {
			continue
		}
		if t > latest {
			latest, timeName = t, e.Name()
		}
	}
	if timeName == "" {
		err = fmt.Errorf("no checkpoint in %s: %w", cd.Dir, os.ErrNotExist)
	}
	return
}

func (cd *CaseDir) Close() error { return nil }

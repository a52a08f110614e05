package InputParameters

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/dnsflux/FV3D"
	"github.com/notargets/dnsflux/spectral"
	"github.com/notargets/dnsflux/types"
)

var ErrConfiguration = types.ErrConfiguration

// Parameters obtained from the YAML input file
type InputParametersDNS struct {
	Title                  string     `yaml:"Title"`
	Viscosity              float64    `yaml:"Viscosity"`
	ForcingCorrelationTime float64    `yaml:"ForcingCorrelationTime"`
	ForcingAmplitude       float64    `yaml:"ForcingAmplitude"`
	ForcingKLower          float64    `yaml:"ForcingKLower"` // Shell bounds in units of 2 pi / L
	ForcingKUpper          float64    `yaml:"ForcingKUpper"`
	ForcingScheme          string     `yaml:"ForcingScheme"`     // exact or euler
	ForcingProjection      string     `yaml:"ForcingProjection"` // project or cross
	Seed                   uint64     `yaml:"Seed"`
	NCorrectors            int        `yaml:"NCorrectors"`
	TimeStep               float64    `yaml:"TimeStep"`
	StartTime              float64    `yaml:"StartTime"`
	EndTime                float64    `yaml:"EndTime"`
	WriteInterval          float64    `yaml:"WriteInterval"`
	Cells                  [3]int     `yaml:"Cells"`
	BoxLength              [3]float64 `yaml:"BoxLength"`
	Walls                  [3]bool    `yaml:"Walls"` // Directions without walls are periodic
	PRefCell               int        `yaml:"PRefCell"`
	PRefValue              float64    `yaml:"PRefValue"`
	PressureTolerance      float64    `yaml:"PressureTolerance"`
	PressureMaxIterations  int        `yaml:"PressureMaxIterations"`
	MomentumTolerance      float64    `yaml:"MomentumTolerance"`
	MomentumMaxIterations  int        `yaml:"MomentumMaxIterations"`
	ProcLimit              int        `yaml:"ProcLimit"`
}

// Keys lists every input key, these are the names accepted as overrides
var Keys = []string{
	"Title", "Viscosity", "ForcingCorrelationTime", "ForcingAmplitude",
	"ForcingKLower", "ForcingKUpper", "ForcingScheme", "ForcingProjection",
	"Seed", "NCorrectors", "TimeStep", "StartTime", "EndTime", "WriteInterval",
	"Cells", "BoxLength", "Walls", "PRefCell", "PRefValue",
	"PressureTolerance", "PressureMaxIterations", "MomentumTolerance",
	"MomentumMaxIterations", "ProcLimit",
}

func (ip *InputParametersDNS) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		err = fmt.Errorf("%w: unable to parse input: %v", ErrConfiguration, err)
	}
	return
}

// ApplyOverrides replaces the deck values of the keys present in overrides.
// String values are parsed as YAML so "0.01" from the environment sets a float.
func (ip *InputParametersDNS) ApplyOverrides(overrides map[string]interface{}) (err error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var raw []byte
		switch val := overrides[key].(type) {
		case string:
			raw = []byte(val)
		default:
			if raw, err = json.Marshal(val); err != nil {
				return fmt.Errorf("%w: override %s: %v", ErrConfiguration, key, err)
			}
		}
		if err = ip.Parse([]byte(key + ": " + string(raw) + "\n")); err != nil {
			return fmt.Errorf("override %s = %v: %w", key, overrides[key], err)
		}
	}
	return
}

func (ip *InputParametersDNS) SetDefaults() {
	if ip.Title == "" {
		ip.Title = "dnsflux"
	}
	if ip.ForcingScheme == "" {
		ip.ForcingScheme = spectral.OUExact.String()
	}
	if ip.ForcingProjection == "" {
		ip.ForcingProjection = spectral.ProjectSolenoidal.String()
	}
	if ip.NCorrectors == 0 {
		ip.NCorrectors = 2
	}
	if ip.WriteInterval == 0 {
		ip.WriteInterval = ip.EndTime - ip.StartTime
	}
	for d := 0; d < 3; d++ {
		if ip.BoxLength[d] == 0 {
			ip.BoxLength[d] = 1
		}
	}
	if ip.PressureTolerance == 0 {
		ip.PressureTolerance = 1.e-12
	}
	if ip.PressureMaxIterations == 0 {
		ip.PressureMaxIterations = 1000
	}
	if ip.MomentumTolerance == 0 {
		ip.MomentumTolerance = 1.e-10
	}
	if ip.MomentumMaxIterations == 0 {
		ip.MomentumMaxIterations = 1000
	}
}

func (ip *InputParametersDNS) Validate() (err error) {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: "+format, append([]interface{}{ErrConfiguration}, args...)...)
	}
	switch {
	case !(ip.Viscosity > 0):
		return bad("Viscosity must be > 0, have %g", ip.Viscosity)
	case ip.NCorrectors < 1:
		return bad("NCorrectors must be >= 1, have %d", ip.NCorrectors)
	case !(ip.TimeStep > 0):
		return bad("TimeStep must be > 0, have %g", ip.TimeStep)
	case !(ip.EndTime > ip.StartTime):
		return bad("EndTime must exceed StartTime, have %g <= %g", ip.EndTime, ip.StartTime)
	case !(ip.WriteInterval > 0):
		return bad("WriteInterval must be > 0, have %g", ip.WriteInterval)
	case !(ip.PressureTolerance > 0) || !(ip.MomentumTolerance > 0):
		return bad("solver tolerances must be > 0, have %g and %g", ip.PressureTolerance, ip.MomentumTolerance)
	case ip.PressureMaxIterations < 1 || ip.MomentumMaxIterations < 1:
		return bad("solver iteration limits must be >= 1, have %d and %d",
			ip.PressureMaxIterations, ip.MomentumMaxIterations)
	case ip.ProcLimit < 0:
		return bad("ProcLimit must be >= 0, have %d", ip.ProcLimit)
	}
	for d := 0; d < 3; d++ {
		if ip.Cells[d] < 1 {
			return bad("Cells must be >= 1 in every direction, have %v", ip.Cells)
		}
		if !(ip.BoxLength[d] > 0) {
			return bad("BoxLength must be > 0 in every direction, have %v", ip.BoxLength)
		}
	}
	if nc := ip.Box().NCells(); ip.PRefCell < 0 || ip.PRefCell >= nc {
		return bad("PRefCell must be in [0, %d), have %d", nc, ip.PRefCell)
	}
	if _, err = ip.ForcingConfig(); err != nil {
		return
	}
	_, err = spectral.NewProjectionType(ip.ForcingProjection)
	return
}

func (ip *InputParametersDNS) Box() FV3D.StructuredBox {
	return FV3D.StructuredBox{N: ip.Cells, L: ip.BoxLength, Walls: ip.Walls}
}

func (ip *InputParametersDNS) ForcingConfig() (cfg spectral.OUConfig, err error) {
	var scheme spectral.OUScheme
	if scheme, err = spectral.NewOUScheme(ip.ForcingScheme); err != nil {
		return
	}
	cfg = spectral.OUConfig{
		CorrelationTime: ip.ForcingCorrelationTime,
		Amplitude:       ip.ForcingAmplitude,
		KLower:          ip.ForcingKLower,
		KUpper:          ip.ForcingKUpper,
		Seed:            ip.Seed,
		Scheme:          scheme,
		DeltaT:          ip.TimeStep,
	}
	err = cfg.Validate()
	return
}

func (ip *InputParametersDNS) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5g\t\t= Viscosity\n", ip.Viscosity)
	fmt.Printf("%8.5g\t\t= TimeStep\n", ip.TimeStep)
	fmt.Printf("[%g, %g]\t\t= Time Range\n", ip.StartTime, ip.EndTime)
	fmt.Printf("%8.5g\t\t= WriteInterval\n", ip.WriteInterval)
	fmt.Printf("%v\t\t= Cells\n", ip.Cells)
	fmt.Printf("%v\t\t= BoxLength\n", ip.BoxLength)
	fmt.Printf("%v\t= Walls\n", ip.Walls)
	fmt.Printf("[%d]\t\t\t\t= PISO Correctors\n", ip.NCorrectors)
	fmt.Printf("[%s, %s]\t= Forcing Scheme, Projection\n", ip.ForcingScheme, ip.ForcingProjection)
	fmt.Printf("%8.5g\t\t= Forcing Correlation Time\n", ip.ForcingCorrelationTime)
	fmt.Printf("%8.5g\t\t= Forcing Amplitude\n", ip.ForcingAmplitude)
	fmt.Printf("[%g, %g]\t\t= Forcing Shell\n", ip.ForcingKLower, ip.ForcingKUpper)
	fmt.Printf("[%d]\t\t\t\t= Seed\n", ip.Seed)
	fmt.Printf("[%d] = %g\t\t= Pressure Reference\n", ip.PRefCell, ip.PRefValue)
}

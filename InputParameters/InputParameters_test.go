package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dnsflux/spectral"
)

var deck = []byte(`
Title: "Forced box"
Viscosity: 0.01
ForcingCorrelationTime: 0.5
ForcingAmplitude: 1.0
ForcingKLower: 1
ForcingKUpper: 2.5
Seed: 1234
NCorrectors: 3
TimeStep: 0.001
EndTime: 1.0
WriteInterval: 0.1
Cells: [16, 16, 16]
Walls: [false, true, false]
`)

func TestInputParameters(t *testing.T) {
	{ // Parse and defaults
		var ip InputParametersDNS
		require.NoError(t, ip.Parse(deck))
		ip.SetDefaults()
		assert.Equal(t, "Forced box", ip.Title)
		assert.Equal(t, 0.01, ip.Viscosity)
		assert.Equal(t, uint64(1234), ip.Seed)
		assert.Equal(t, [3]int{16, 16, 16}, ip.Cells)
		assert.Equal(t, [3]bool{false, true, false}, ip.Walls)
		assert.Equal(t, [3]float64{1, 1, 1}, ip.BoxLength)
		assert.Equal(t, "exact", ip.ForcingScheme)
		assert.Equal(t, "project", ip.ForcingProjection)
		assert.Equal(t, 1.e-12, ip.PressureTolerance)
		assert.NoError(t, ip.Validate())
		box := ip.Box()
		assert.Equal(t, 4096, box.NCells())
		cfg, err := ip.ForcingConfig()
		require.NoError(t, err)
		assert.Equal(t, spectral.OUExact, cfg.Scheme)
		assert.Equal(t, 0.001, cfg.DeltaT)
	}
	{ // WriteInterval defaults to the run length
		var ip InputParametersDNS
		require.NoError(t, ip.Parse([]byte("StartTime: 1\nEndTime: 3\n")))
		ip.SetDefaults()
		assert.Equal(t, 2., ip.WriteInterval)
		assert.Equal(t, 2, ip.NCorrectors)
	}
	{ // Overrides from strings and typed values
		var ip InputParametersDNS
		require.NoError(t, ip.Parse(deck))
		require.NoError(t, ip.ApplyOverrides(map[string]interface{}{
			"Viscosity":     "0.02",
			"Cells":         []interface{}{8, 8, 4},
			"ForcingScheme": "euler",
			"Walls":         "[true, true, true]",
		}))
		assert.Equal(t, 0.02, ip.Viscosity)
		assert.Equal(t, [3]int{8, 8, 4}, ip.Cells)
		assert.Equal(t, "euler", ip.ForcingScheme)
		assert.Equal(t, [3]bool{true, true, true}, ip.Walls)
		assert.Equal(t, 3, ip.NCorrectors)
		err := ip.ApplyOverrides(map[string]interface{}{"Viscosity": "fast"})
		assert.ErrorIs(t, err, ErrConfiguration)
	}
	{ // Invalid decks
		mods := []func(ip *InputParametersDNS){
			func(ip *InputParametersDNS) { ip.Viscosity = 0 },
			func(ip *InputParametersDNS) { ip.NCorrectors = -1 },
			func(ip *InputParametersDNS) { ip.TimeStep = -1 },
			func(ip *InputParametersDNS) { ip.EndTime = 0 },
			func(ip *InputParametersDNS) { ip.Cells[2] = 0 },
			func(ip *InputParametersDNS) { ip.BoxLength[0] = -1 },
			func(ip *InputParametersDNS) { ip.PRefCell = 4096 },
			func(ip *InputParametersDNS) { ip.ForcingKUpper = 0.5 },
			func(ip *InputParametersDNS) { ip.ForcingCorrelationTime = 0 },
			func(ip *InputParametersDNS) { ip.ForcingScheme = "rk4" },
			func(ip *InputParametersDNS) { ip.ForcingProjection = "helmholtz" },
			func(ip *InputParametersDNS) { ip.ProcLimit = -2 },
		}
		for i, mod := range mods {
			var ip InputParametersDNS
			require.NoError(t, ip.Parse(deck))
			ip.SetDefaults()
			mod(&ip)
			assert.ErrorIs(t, ip.Validate(), ErrConfiguration, "case %d", i)
		}
	}
}

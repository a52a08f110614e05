package spectral

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/notargets/dnsflux/types"
	"github.com/notargets/dnsflux/utils"
)

var ErrConfiguration = types.ErrConfiguration

// Shell membership tolerance on |m|^2
const shellDelta = 1.e-6

// Second word of the PCG seed, the first is the user seed
const pcgStream = 0xda3e39cb94b95bdb

type OUScheme uint8

const (
	OUExact OUScheme = iota // Exact discretization of the OU process
	OUEuler                 // Euler-Maruyama
)

var OUSchemeNameMap = map[string]OUScheme{
	"exact": OUExact,
	"euler": OUEuler,
}

func (s OUScheme) String() string {
	switch s {
	case OUExact:
		return "exact"
	case OUEuler:
		return "euler"
	}
	return fmt.Sprintf("OUScheme(%d)", uint8(s))
}

func NewOUScheme(name string) (s OUScheme, err error) {
	var ok bool
	if name == "" {
		return OUExact, nil
	}
	if s, ok = OUSchemeNameMap[name]; !ok {
		err = fmt.Errorf("%w: ForcingScheme must be exact or euler, have %q", ErrConfiguration, name)
	}
	return
}

type OUConfig struct {
	CorrelationTime float64 // T
	Amplitude       float64 // sigma
	KLower, KUpper  float64 // Forced shell in units of the fundamental wavenumber
	Seed            uint64
	Scheme          OUScheme
	DeltaT          float64
}

func (cfg OUConfig) Validate() (err error) {
	switch {
	case !(cfg.CorrelationTime > 0):
		err = fmt.Errorf("%w: ForcingCorrelationTime must be > 0, have %g", ErrConfiguration, cfg.CorrelationTime)
	case !(cfg.Amplitude >= 0):
		err = fmt.Errorf("%w: ForcingAmplitude must be >= 0, have %g", ErrConfiguration, cfg.Amplitude)
	case !(cfg.KLower >= 0):
		err = fmt.Errorf("%w: ForcingKLower must be >= 0, have %g", ErrConfiguration, cfg.KLower)
	case !(cfg.KUpper > cfg.KLower):
		err = fmt.Errorf("%w: ForcingKUpper must exceed ForcingKLower, have %g <= %g",
			ErrConfiguration, cfg.KUpper, cfg.KLower)
	case !(cfg.DeltaT > 0):
		err = fmt.Errorf("%w: TimeStep must be > 0, have %g", ErrConfiguration, cfg.DeltaT)
	case cfg.Scheme != OUExact && cfg.Scheme != OUEuler:
		err = fmt.Errorf("%w: unknown forcing scheme %v", ErrConfiguration, cfg.Scheme)
	}
	return
}

/*
OUProcess evolves an Ornstein-Uhlenbeck amplitude for each vector component of
every mode in the forcing shell KLower^2 < |m|^2 < KUpper^2. Modes outside the
shell stay zero. Gaussian increments are drawn in mode order, then component,
then real before imaginary part, from a seeded PCG source, so a fixed seed and
time step give a bit-reproducible sequence.
*/
type OUProcess struct {
	K        *Kmesh
	Config   OUConfig
	NAdvance int // Number of advances since the start of the run
	amp      [][3]complex128
	forced   []int
	src      *rand.PCG
	normal   distuv.Normal
}

// OUState is the restartable state of the process
type OUState struct {
	Amplitudes [][3]complex128
	RNG        []byte
	NAdvance   int
}

func (st OUState) Finite() bool { return utils.IsFinite(st.Amplitudes) }

func NewOUProcess(K *Kmesh, cfg OUConfig) (ou *OUProcess, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	src := rand.NewPCG(cfg.Seed, pcgStream)
	ou = &OUProcess{
		K:      K,
		Config: cfg,
		amp:    make([][3]complex128, K.NModes()),
		src:    src,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
	var (
		lower2 = cfg.KLower*cfg.KLower - shellDelta
		upper2 = cfg.KUpper * cfg.KUpper
	)
	// The mean mode is never forced, a uniform force would drive a mean flow
	for mode := 0; mode < K.NModes(); mode++ {
		m2 := K.IntegerMag2(mode)
		if m2 > 0 && m2 > lower2 && m2 < upper2 {
			ou.forced = append(ou.forced, mode)
		}
	}
	// Start from the stationary distribution
	stationary := cfg.Amplitude * math.Sqrt(cfg.CorrelationTime/2)
	for _, mode := range ou.forced {
		for d := 0; d < 3; d++ {
			re := ou.normal.Rand()
			im := ou.normal.Rand()
			ou.amp[mode][d] = complex(stationary*re, stationary*im)
		}
	}
	return
}

func (ou *OUProcess) ForcedCount() int { return len(ou.forced) }

// ForcedModes lists the forced mode indices in draw order
func (ou *OUProcess) ForcedModes() []int { return ou.forced }

// NewField advances the process by the configured time step
func (ou *OUProcess) NewField() [][3]complex128 {
	return ou.Advance(ou.Config.DeltaT)
}

// Advance moves every forced amplitude forward by dt and returns a copy of the
// full field
func (ou *OUProcess) Advance(dt float64) (F [][3]complex128) {
	if !(dt > 0) {
		panic(fmt.Errorf("OU advance needs dt > 0, have %g", dt))
	}
	var (
		T          = ou.Config.CorrelationTime
		sigma      = ou.Config.Amplitude
		decay, amp float64
	)
	switch ou.Config.Scheme {
	case OUEuler:
		decay = 1 - dt/T
		amp = sigma * math.Sqrt(dt)
	default:
		decay = math.Exp(-dt / T)
		amp = sigma * math.Sqrt(T/2*(1-math.Exp(-2*dt/T)))
	}
	for _, mode := range ou.forced {
		for d := 0; d < 3; d++ {
			re := ou.normal.Rand()
			im := ou.normal.Rand()
			ou.amp[mode][d] = complex(decay, 0)*ou.amp[mode][d] + complex(amp*re, amp*im)
		}
	}
	ou.NAdvance++
	return ou.Field()
}

// Field returns a copy of the current amplitudes without advancing
func (ou *OUProcess) Field() (F [][3]complex128) {
	F = make([][3]complex128, len(ou.amp))
	copy(F, ou.amp)
	return
}

func (ou *OUProcess) State() (st OUState, err error) {
	st.Amplitudes = ou.Field()
	st.NAdvance = ou.NAdvance
	if st.RNG, err = ou.src.MarshalBinary(); err != nil {
		err = fmt.Errorf("forcing state snapshot: %w", err)
	}
	return
}

func (ou *OUProcess) Restore(st OUState) (err error) {
	if len(st.Amplitudes) != len(ou.amp) {
		return fmt.Errorf("%w: forcing state has %d modes, the box has %d",
			ErrConfiguration, len(st.Amplitudes), len(ou.amp))
	}
	if err = ou.src.UnmarshalBinary(st.RNG); err != nil {
		return fmt.Errorf("forcing state restore: %w", err)
	}
	copy(ou.amp, st.Amplitudes)
	ou.NAdvance = st.NAdvance
	return
}

package spectral

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/notargets/dnsflux/FV3D"
)

func unitBox(n int) FV3D.StructuredBox {
	return FV3D.StructuredBox{N: [3]int{n, n, n}, L: [3]float64{1, 1, 1}}
}

func randomComplex(n int, seed uint64) (x []complex128) {
	rng := rand.New(rand.NewPCG(seed, 7))
	x = make([]complex128, n)
	for i := range x {
		x[i] = complex(rng.Float64()-0.5, rng.Float64()-0.5)
	}
	return
}

func randomVector(n int, seed uint64) (F [][3]complex128) {
	x := randomComplex(3*n, seed)
	F = make([][3]complex128, n)
	for i := range F {
		F[i] = [3]complex128{x[3*i], x[3*i+1], x[3*i+2]}
	}
	return
}

func kDot(km *Kmesh, mode int, f [3]complex128) complex128 {
	var dot complex128
	for d := 0; d < 3; d++ {
		dot += f[d] * complex(km.K[mode][d], 0)
	}
	return dot
}

func TestKmesh(t *testing.T) {
	{
		km := NewKmesh(FV3D.StructuredBox{N: [3]int{4, 3, 1}, L: [3]float64{1, 2, 1}})
		assert.Equal(t, 12, km.NModes())
		var mx, my []int
		for j := 0; j < 4; j++ {
			mx = append(mx, km.M[j*3][0])
		}
		for j := 0; j < 3; j++ {
			my = append(my, km.M[j][1])
		}
		assert.Equal(t, []int{0, 1, -2, -1}, mx)
		assert.Equal(t, []int{0, 1, -1}, my)
		// Mode (1, 1, 0)
		mode := 1*3 + 1
		assert.InDeltaSlice(t, []float64{2 * math.Pi, math.Pi, 0}, km.K[mode][:], 1.e-14)
		assert.InDelta(t, math.Sqrt(5)*math.Pi, km.Mag[mode], 1.e-14)
		assert.Equal(t, 2., km.IntegerMag2(mode))
	}
	{ // Unit vectors, the mean mode maps to zero
		km := NewKmesh(unitBox(4))
		assert.Equal(t, [3]float64{}, km.Khat(0))
		for mode := 1; mode < km.NModes(); mode++ {
			kh := km.Khat(mode)
			assert.InDelta(t, 1, kh[0]*kh[0]+kh[1]*kh[1]+kh[2]*kh[2], 1.e-14)
		}
	}
	{
		assert.Equal(t, 0, SignedIndex(0, 1))
		assert.Equal(t, 2, SignedIndex(2, 5))
		assert.Equal(t, -2, SignedIndex(3, 5))
		assert.Panics(t, func() { NewKmesh(FV3D.StructuredBox{N: [3]int{0, 2, 2}, L: [3]float64{1, 1, 1}}) })
	}
}

func TestFFT3D(t *testing.T) {
	N := [3]int{4, 6, 5}
	NT := N[0] * N[1] * N[2]
	x := randomComplex(NT, 1)
	{ // Agreement with an independent FFT
		ft := NewFFT3D(N, 3)
		X := ft.Forward(x)
		ref := fft.FFTN(dsputils.MakeMatrix(append([]complex128(nil), x...), N[:]))
		for i := 0; i < N[0]; i++ {
			for j := 0; j < N[1]; j++ {
				for k := 0; k < N[2]; k++ {
					c := (i*N[1]+j)*N[2] + k
					expected := ref.Value([]int{i, j, k}) / complex(float64(NT), 0)
					assert.True(t, cmplx.Abs(expected-X[c]) < 1.e-12)
				}
			}
		}
	}
	{ // Exact pair in both orders
		ft := NewFFT3D(N, 2)
		y := ft.Inverse(ft.Forward(x))
		z := ft.Forward(ft.Inverse(x))
		for i := range x {
			assert.True(t, cmplx.Abs(x[i]-y[i]) < 1.e-13)
			assert.True(t, cmplx.Abs(x[i]-z[i]) < 1.e-13)
		}
	}
	{ // Forward of a single plane wave is a unit amplitude at its mode
		ft := NewFFT3D([3]int{8, 8, 8}, 1)
		km := NewKmesh(unitBox(8))
		wave := make([]complex128, 512)
		target := [3]int{1, -2, 3}
		for c := range wave {
			i, j, k := unitBox(8).CellIJK(c)
			arg := 2 * math.Pi * float64(target[0]*i+target[1]*j+target[2]*k) / 8
			wave[c] = cmplx.Exp(complex(0, arg))
		}
		X := ft.Forward(wave)
		for mode := range X {
			if km.M[mode] == target {
				assert.True(t, cmplx.Abs(X[mode]-1) < 1.e-12)
			} else {
				assert.True(t, cmplx.Abs(X[mode]) < 1.e-12)
			}
		}
	}
	{ // Results do not depend on the worker count
		X1 := NewFFT3D(N, 1).Forward(x)
		X4 := NewFFT3D(N, 4).Forward(x)
		assert.Equal(t, X1, X4)
		assert.Equal(t, NewFFT3D(N, 1).Inverse(x), NewFFT3D(N, 7).Inverse(x))
	}
}

func TestProjector(t *testing.T) {
	km := NewKmesh(unitBox(6))
	F := randomVector(km.NModes(), 3)
	{
		pr := NewProjector(km, ProjectSolenoidal, 2)
		P := pr.ProjectSolenoidal(F)
		assert.Equal(t, F[0], P[0])
		for mode := range P {
			assert.True(t, cmplx.Abs(kDot(km, mode, P[mode])) < 1.e-12)
		}
		// Idempotent
		PP := pr.ProjectSolenoidal(P)
		for mode := range P {
			for d := 0; d < 3; d++ {
				assert.True(t, cmplx.Abs(PP[mode][d]-P[mode][d]) < 1.e-14)
			}
		}
		assert.Equal(t, P, pr.Apply(F))
	}
	{
		pr := NewProjector(km, ProjectCurl, 1)
		P := pr.Apply(F)
		assert.Equal(t, [3]complex128{}, P[0])
		for mode := range P {
			assert.True(t, cmplx.Abs(kDot(km, mode, P[mode])) < 1.e-12)
		}
	}
	{ // The physical force is Re + Im of the synthesis
		pr := NewProjector(km, ProjectSolenoidal, 3)
		f := pr.PhysicalForce(F)
		comp := make([]complex128, len(F))
		for mode := range F {
			comp[mode] = F[mode][1]
		}
		x := pr.FFT.Inverse(comp)
		for c := range f {
			assert.InDelta(t, real(x[c])+imag(x[c]), f[c][1], 1.e-14)
		}
	}
	{
		pt, err := NewProjectionType("cross")
		assert.NoError(t, err)
		assert.Equal(t, ProjectCurl, pt)
		pt, err = NewProjectionType("")
		assert.NoError(t, err)
		assert.Equal(t, ProjectSolenoidal, pt)
		_, err = NewProjectionType("helical")
		assert.ErrorIs(t, err, ErrConfiguration)
	}
}

func TestOUProcess(t *testing.T) {
	km := NewKmesh(unitBox(8))
	cfg := OUConfig{CorrelationTime: 0.5, Amplitude: 1, KLower: 1, KUpper: 2, Seed: 42, DeltaT: 0.001}
	{ // Shell membership 1 <= |m|^2 < 4
		ou, err := NewOUProcess(km, cfg)
		require.NoError(t, err)
		assert.Equal(t, 26, ou.ForcedCount())
		forced := make(map[int]bool)
		for _, mode := range ou.ForcedModes() {
			forced[mode] = true
		}
		F := ou.NewField()
		for mode := range F {
			if !forced[mode] {
				assert.Equal(t, [3]complex128{}, F[mode])
			} else {
				assert.NotEqual(t, [3]complex128{}, F[mode])
			}
		}
	}
	{ // Same seed, same sequence; different seed, different sequence
		a, _ := NewOUProcess(km, cfg)
		b, _ := NewOUProcess(km, cfg)
		cfg2 := cfg
		cfg2.Seed = 43
		c, _ := NewOUProcess(km, cfg2)
		for i := 0; i < 5; i++ {
			Fa, Fb, Fc := a.NewField(), b.NewField(), c.NewField()
			assert.Equal(t, Fa, Fb)
			assert.NotEqual(t, Fa, Fc)
		}
	}
	{ // Restoring a snapshot continues the identical sequence
		a, _ := NewOUProcess(km, cfg)
		for i := 0; i < 10; i++ {
			a.NewField()
		}
		st, err := a.State()
		require.NoError(t, err)
		var expected [][][3]complex128
		for i := 0; i < 5; i++ {
			expected = append(expected, a.NewField())
		}
		cfg2 := cfg
		cfg2.Seed = 99
		b, _ := NewOUProcess(km, cfg2)
		require.NoError(t, b.Restore(st))
		assert.Equal(t, 10, b.NAdvance)
		for i := 0; i < 5; i++ {
			assert.Equal(t, expected[i], b.NewField())
		}
		st.Amplitudes = st.Amplitudes[:3]
		assert.ErrorIs(t, b.Restore(st), ErrConfiguration)
	}
	{ // Stationary variance sigma^2 T / 2 per real and imaginary part
		cfgS := cfg
		cfgS.KUpper = 3
		cfgS.DeltaT = 0.25
		ou, err := NewOUProcess(km, cfgS)
		require.NoError(t, err)
		assert.Equal(t, 92, ou.ForcedCount())
		var samples []float64
		for i := 0; i < 400; i++ {
			F := ou.NewField()
			for _, mode := range ou.ForcedModes() {
				for d := 0; d < 3; d++ {
					samples = append(samples, real(F[mode][d]), imag(F[mode][d]))
				}
			}
		}
		mean, variance := stat.MeanVariance(samples, nil)
		assert.InDelta(t, 0, mean, 0.015)
		assert.InDelta(t, 0.25, variance, 0.01)
	}
	{ // A shell reaching down to zero leaves the mean mode unforced
		cfg0 := cfg
		cfg0.KLower = 0
		ou, err := NewOUProcess(km, cfg0)
		require.NoError(t, err)
		assert.Equal(t, 26, ou.ForcedCount())
		assert.NotContains(t, ou.ForcedModes(), 0)
		pr := NewProjector(km, ProjectSolenoidal, 2)
		for i := 0; i < 3; i++ {
			F := ou.NewField()
			assert.Equal(t, [3]complex128{}, F[0])
			f := pr.PhysicalForce(pr.Apply(F))
			var mean [3]float64
			for _, v := range f {
				for d := 0; d < 3; d++ {
					mean[d] += v[d] / float64(len(f))
				}
			}
			for d := 0; d < 3; d++ {
				assert.InDelta(t, 0, mean[d], 1.e-12)
			}
		}
	}
	{ // Zero amplitude never forces
		cfgZ := cfg
		cfgZ.Amplitude = 0
		cfgZ.Scheme = OUEuler
		ou, err := NewOUProcess(km, cfgZ)
		require.NoError(t, err)
		for _, f := range ou.NewField() {
			assert.Equal(t, [3]complex128{}, f)
		}
	}
	{
		bad := []OUConfig{
			{CorrelationTime: 0, Amplitude: 1, KLower: 1, KUpper: 2, DeltaT: 1},
			{CorrelationTime: 1, Amplitude: -1, KLower: 1, KUpper: 2, DeltaT: 1},
			{CorrelationTime: 1, Amplitude: 1, KLower: 2, KUpper: 2, DeltaT: 1},
			{CorrelationTime: 1, Amplitude: 1, KLower: -1, KUpper: 2, DeltaT: 1},
			{CorrelationTime: 1, Amplitude: 1, KLower: 1, KUpper: 2, DeltaT: 0},
			{CorrelationTime: math.NaN(), Amplitude: 1, KLower: 1, KUpper: 2, DeltaT: 1},
		}
		for _, b := range bad {
			_, err := NewOUProcess(km, b)
			assert.ErrorIs(t, err, ErrConfiguration)
		}
		s, err := NewOUScheme("euler")
		assert.NoError(t, err)
		assert.Equal(t, OUEuler, s)
		_, err = NewOUScheme("milstein")
		assert.ErrorIs(t, err, ErrConfiguration)
	}
}

func TestEnergySpectrum(t *testing.T) {
	box := unitBox(8)
	km := NewKmesh(box)
	pr := NewProjector(km, ProjectSolenoidal, 2)
	{ // Single shear wave in shell 1
		U := make([][3]float64, box.NCells())
		for c := range U {
			i, _, _ := box.CellIJK(c)
			U[c][1] = math.Sin(2 * math.Pi * (float64(i) + 0.5) / 8)
		}
		es := pr.EnergySpectrum(U)
		assert.InDelta(t, 2*math.Pi, es.K[1], 1.e-14)
		assert.InDelta(t, 0.25, es.E[1], 1.e-13)
		assert.InDelta(t, 0.25, es.Total(), 1.e-13)
	}
	{ // Parseval
		x := randomComplex(3*box.NCells(), 11)
		U := make([][3]float64, box.NCells())
		var sum float64
		for c := range U {
			for d := 0; d < 3; d++ {
				U[c][d] = real(x[3*c+d])
				sum += U[c][d] * U[c][d]
			}
		}
		es := pr.EnergySpectrum(U)
		assert.InDelta(t, 0.5*sum/float64(box.NCells()), es.Total(), 1.e-12)
	}
}

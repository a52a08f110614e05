package utils

import (
	"fmt"
	"math"
	"runtime"
)

func GetMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return fmt.Sprintf("Alloc = %v MiB TotalAlloc = %v MiB Sys = %v MiB NumGC = %v",
		bToMb(m.Alloc), bToMb(m.TotalAlloc), bToMb(m.Sys), m.NumGC)
}

// IsFinite is false if any value held by A is NaN or Inf
func IsFinite(A any) bool {
	bad := func(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }
	switch v := A.(type) {
	case float64:
		return !bad(v)
	case []float64:
		for _, f := range v {
			if bad(f) {
				return false
			}
		}
	case [][3]float64:
		for _, f := range v {
			if bad(f[0]) || bad(f[1]) || bad(f[2]) {
				return false
			}
		}
	case []complex128:
		for _, c := range v {
			if bad(real(c)) || bad(imag(c)) {
				return false
			}
		}
	case [][3]complex128:
		for _, c := range v {
			for n := 0; n < 3; n++ {
				if bad(real(c[n])) || bad(imag(c[n])) {
					return false
				}
			}
		}
	default:
		panic(fmt.Errorf("IsFinite: unsupported type %T", A))
	}
	return true
}

package FV3D

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"

	"github.com/notargets/dnsflux/utils"
)

// ErrLinearSolve is returned when a linear solve breaks down, does not reach
// its tolerance, or produces non-finite values
var ErrLinearSolve = errors.New("linear solve failure")

type SolverControls struct {
	Tolerance float64 // On ||b - Ax|| / ||b||
	MaxIter   int
}

type SolverPerformance struct {
	Solver, Field                  string
	InitialResidual, FinalResidual float64
	NIterations                    int
	Converged                      bool
}

func (sp SolverPerformance) String() string {
	return fmt.Sprintf("%s:  Solving for %s, Initial residual = %.6g, Final residual = %.6g, No Iterations %d",
		sp.Solver, sp.Field, sp.InitialResidual, sp.FinalResidual, sp.NIterations)
}

func vec(d []float64) blas64.Vector {
	return blas64.Vector{N: len(d), Data: d, Inc: 1}
}

func jacobi(M *LDUMatrix) (rD []float64) {
	rD = make([]float64, len(M.Diag))
	for i, d := range M.Diag {
		rD[i] = 1 / d
	}
	return
}

func initialResidual(A utils.CSR, x, b, r []float64) (normB, res float64) {
	A.MulVec(r, x)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	normB = blas64.Nrm2(vec(b))
	res = blas64.Nrm2(vec(r))
	return
}

func finish(sp SolverPerformance, x []float64, ctl SolverControls) (SolverPerformance, error) {
	if !utils.IsFinite(x) {
		return sp, fmt.Errorf("%w: %s produced non-finite %s", ErrLinearSolve, sp.Solver, sp.Field)
	}
	if !sp.Converged {
		return sp, fmt.Errorf("%w: %s for %s reached %d iterations with residual %g > %g",
			ErrLinearSolve, sp.Solver, sp.Field, sp.NIterations, sp.FinalResidual, ctl.Tolerance)
	}
	return sp, nil
}

// PCG solves M x = b for symmetric positive definite M, using x as the
// initial guess, Jacobi preconditioned. A non-symmetric M panics.
func PCG(field string, M *LDUMatrix, x, b []float64, ctl SolverControls) (sp SolverPerformance, err error) {
	if !M.Symmetric() {
		panic(fmt.Errorf("PCG for %s needs a symmetric matrix", field))
	}
	var (
		n  = len(b)
		A  = M.CSR()
		rD = jacobi(M)
		r  = make([]float64, n)
		z  = make([]float64, n)
		p  = make([]float64, n)
		q  = make([]float64, n)
	)
	sp = SolverPerformance{Solver: "PCG", Field: field}
	normB, res := initialResidual(A, x, b, r)
	if normB == 0 {
		for i := range x {
			x[i] = 0
		}
		sp.Converged = true
		return
	}
	sp.InitialResidual = res / normB
	sp.FinalResidual = sp.InitialResidual
	if sp.FinalResidual < ctl.Tolerance {
		sp.Converged = true
		return finish(sp, x, ctl)
	}
	var rhoOld float64
	for iter := 1; iter <= ctl.MaxIter; iter++ {
		for i := range z {
			z[i] = rD[i] * r[i]
		}
		rho := blas64.Dot(vec(r), vec(z))
		if iter == 1 {
			copy(p, z)
		} else {
			beta := rho / rhoOld
			for i := range p {
				p[i] = z[i] + beta*p[i]
			}
		}
		A.MulVec(q, p)
		pq := blas64.Dot(vec(p), vec(q))
		if pq == 0 || math.IsNaN(pq) {
			sp.NIterations = iter
			err = fmt.Errorf("%w: PCG breakdown for %s, p.Ap = %g", ErrLinearSolve, field, pq)
			return
		}
		alpha := rho / pq
		blas64.Axpy(alpha, vec(p), vec(x))
		blas64.Axpy(-alpha, vec(q), vec(r))
		rhoOld = rho
		sp.NIterations = iter
		sp.FinalResidual = blas64.Nrm2(vec(r)) / normB
		if sp.FinalResidual < ctl.Tolerance {
			sp.Converged = true
			break
		}
	}
	return finish(sp, x, ctl)
}

// PBiCGStab solves M x = b for general M, using x as the initial guess,
// right Jacobi preconditioned
func PBiCGStab(field string, M *LDUMatrix, x, b []float64, ctl SolverControls) (sp SolverPerformance, err error) {
	var (
		n    = len(b)
		A    = M.CSR()
		rD   = jacobi(M)
		r    = make([]float64, n)
		r0   = make([]float64, n)
		p    = make([]float64, n)
		v    = make([]float64, n)
		s    = make([]float64, n)
		t    = make([]float64, n)
		yHat = make([]float64, n)
		zHat = make([]float64, n)
	)
	sp = SolverPerformance{Solver: "PBiCGStab", Field: field}
	normB, res := initialResidual(A, x, b, r)
	if normB == 0 {
		for i := range x {
			x[i] = 0
		}
		sp.Converged = true
		return
	}
	sp.InitialResidual = res / normB
	sp.FinalResidual = sp.InitialResidual
	if sp.FinalResidual < ctl.Tolerance {
		sp.Converged = true
		return finish(sp, x, ctl)
	}
	copy(r0, r)
	var (
		rhoOld, alpha, omega = 1., 1., 1.
	)
	for iter := 1; iter <= ctl.MaxIter; iter++ {
		sp.NIterations = iter
		rho := blas64.Dot(vec(r0), vec(r))
		if rho == 0 {
			err = fmt.Errorf("%w: PBiCGStab breakdown for %s, rho = 0", ErrLinearSolve, field)
			return
		}
		if iter == 1 {
			copy(p, r)
		} else {
			beta := (rho / rhoOld) * (alpha / omega)
			for i := range p {
				p[i] = r[i] + beta*(p[i]-omega*v[i])
			}
		}
		for i := range yHat {
			yHat[i] = rD[i] * p[i]
		}
		A.MulVec(v, yHat)
		r0v := blas64.Dot(vec(r0), vec(v))
		if r0v == 0 {
			err = fmt.Errorf("%w: PBiCGStab breakdown for %s, r0.v = 0", ErrLinearSolve, field)
			return
		}
		alpha = rho / r0v
		for i := range s {
			s[i] = r[i] - alpha*v[i]
		}
		if sNorm := blas64.Nrm2(vec(s)) / normB; sNorm < ctl.Tolerance {
			blas64.Axpy(alpha, vec(yHat), vec(x))
			copy(r, s)
			sp.FinalResidual = sNorm
			sp.Converged = true
			break
		}
		for i := range zHat {
			zHat[i] = rD[i] * s[i]
		}
		A.MulVec(t, zHat)
		tt := blas64.Dot(vec(t), vec(t))
		if tt == 0 {
			err = fmt.Errorf("%w: PBiCGStab breakdown for %s, t.t = 0", ErrLinearSolve, field)
			return
		}
		omega = blas64.Dot(vec(t), vec(s)) / tt
		blas64.Axpy(alpha, vec(yHat), vec(x))
		blas64.Axpy(omega, vec(zHat), vec(x))
		for i := range r {
			r[i] = s[i] - omega*t[i]
		}
		rhoOld = rho
		sp.FinalResidual = blas64.Nrm2(vec(r)) / normB
		if sp.FinalResidual < ctl.Tolerance {
			sp.Converged = true
			break
		}
		if omega == 0 {
			err = fmt.Errorf("%w: PBiCGStab breakdown for %s, omega = 0", ErrLinearSolve, field)
			return
		}
	}
	return finish(sp, x, ctl)
}

package instruments

import (
	"fmt"

	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/solver"
)

// Delta reports first-order NPV sensitivities to the solver's curve nodes
// and FX spots. The solver's AD state is elevated for the duration of the
// call and restored on return, including on error.
//
// All curves and FX the instrument prices against must be registered with
// p.Solver; unregistered state stays at its own AD order and cannot be mixed
// into an elevated computation.
func Delta(i Instrument, p Pricing) (solver.Delta, error) {
	if p.Solver == nil {
		return solver.Delta{}, fmt.Errorf("instruments.Delta: solver required")
	}
	guard := dual.ElevateAD(dual.Order1, p.Solver.Holders()...)
	defer guard.Restore()
	npv, err := i.NPV(p)
	if err != nil {
		return solver.Delta{}, fmt.Errorf("instruments.Delta: %w", err)
	}
	return p.Solver.ProjectDelta(npv), nil
}

// Gamma reports second-order NPV sensitivities as per-curve node matrices,
// with the same elevation contract as Delta.
func Gamma(i Instrument, p Pricing) (map[string][][]float64, error) {
	if p.Solver == nil {
		return nil, fmt.Errorf("instruments.Gamma: solver required")
	}
	guard := dual.ElevateAD(dual.Order2, p.Solver.Holders()...)
	defer guard.Restore()
	npv, err := i.NPV(p)
	if err != nil {
		return nil, fmt.Errorf("instruments.Gamma: %w", err)
	}
	return p.Solver.ProjectGamma(npv), nil
}

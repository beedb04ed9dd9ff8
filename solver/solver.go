// Package solver holds calibrated pricing state: the curves and FX forwards
// instruments price against, lookup policies for curves supplied from
// outside the solver, and projections of AD sensitivities onto curve nodes.
package solver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcopist/rateslib/curve"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/fx"
)

// ErrCurveNotInSolver is returned when a curve id is not registered.
var ErrCurveNotInSolver = errors.New("curve not in solver")

// Policy controls how Resolve treats a curve object that is not registered
// with the solver: pricing against unrecognised state usually indicates a
// stale reference.
type Policy int

const (
	PolicyRaise Policy = iota // reject the curve
	PolicyWarn                // log and use the supplied curve
	PolicyAllow               // use the supplied curve silently
)

// Solver is a registry of calibrated curves and FX forwards.
type Solver struct {
	curves map[string]*curve.Curve
	fx     *fx.Forwards
	policy Policy
	log    *slog.Logger
}

// New builds a solver over calibrated curves. fxf and logger may be nil; a
// nil logger falls back to slog.Default.
func New(curves []*curve.Curve, fxf *fx.Forwards, policy Policy, logger *slog.Logger) *Solver {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Solver{
		curves: make(map[string]*curve.Curve, len(curves)),
		fx:     fxf,
		policy: policy,
		log:    logger,
	}
	for _, c := range curves {
		s.curves[c.ID()] = c
	}
	return s
}

// Curve returns the registered curve with the given id.
func (s *Solver) Curve(id string) (*curve.Curve, error) {
	c, ok := s.curves[id]
	if !ok {
		return nil, fmt.Errorf("solver.Curve: %q: %w", id, ErrCurveNotInSolver)
	}
	return c, nil
}

// Resolve maps a caller-supplied curve onto solver state. A curve whose id is
// registered resolves to the registered object; an unknown curve is handled
// per the solver's policy.
func (s *Solver) Resolve(c *curve.Curve) (*curve.Curve, error) {
	if own, ok := s.curves[c.ID()]; ok {
		return own, nil
	}
	switch s.policy {
	case PolicyAllow:
		return c, nil
	case PolicyWarn:
		s.log.Warn("pricing with curve not in solver", "curve", c.ID())
		return c, nil
	default:
		return nil, fmt.Errorf("solver.Resolve: %q: %w", c.ID(), ErrCurveNotInSolver)
	}
}

// FX returns the solver's FX forwards (may be nil).
func (s *Solver) FX() *fx.Forwards { return s.fx }

// Holders returns every AD-order holder owned by the solver, for use with
// dual.ElevateAD.
func (s *Solver) Holders() []dual.ADHolder {
	var out []dual.ADHolder
	for _, c := range s.curves {
		out = append(out, c)
	}
	if s.fx != nil {
		out = append(out, s.fx)
	}
	return out
}

// Delta is a first-order risk report: npv sensitivity per curve node and per
// FX spot pair.
type Delta struct {
	// Curves maps curve id to d(npv)/d(df_i) per node, ascending.
	Curves map[string][]float64
	// FX maps pair to d(npv)/d(spot).
	FX map[string]float64
}

// ProjectDelta groups a dual number's gradient by the solver's curve nodes
// and FX pairs. Variables follow the curve convention "<id><index>" and the
// FX convention "fx_<pair>".
func (s *Solver) ProjectDelta(npv dual.Number) Delta {
	out := Delta{Curves: map[string][]float64{}, FX: map[string]float64{}}
	for id, c := range s.curves {
		nodes := make([]float64, len(c.NodeDates()))
		for i := range nodes {
			nodes[i] = npv.Gradient(fmt.Sprintf("%s%d", id, i))
		}
		out.Curves[id] = nodes
	}
	for _, v := range npv.Vars() {
		if len(v) > 3 && v[:3] == "fx_" {
			out.FX[v[3:]] = npv.Gradient(v)
		}
	}
	return out
}

// ProjectGamma groups a dual number's Hessian into per-curve node matrices.
// Cross-curve and FX-cross blocks are available directly from the dual via
// Gradient2 when needed.
func (s *Solver) ProjectGamma(npv dual.Number) map[string][][]float64 {
	out := make(map[string][][]float64, len(s.curves))
	for id, c := range s.curves {
		n := len(c.NodeDates())
		m := make([][]float64, n)
		for i := 0; i < n; i++ {
			m[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				m[i][j] = npv.Gradient2(fmt.Sprintf("%s%d", id, i), fmt.Sprintf("%s%d", id, j))
			}
		}
		out[id] = m
	}
	return out
}

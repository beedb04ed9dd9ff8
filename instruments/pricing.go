// Package instruments prices derivatives and composites against curves, FX
// forwards and solver state: interest rate swaps, cross-currency swaps
// (non-MTM and mark-to-market), curve-value calibration instruments, and the
// Spread/Fly/Portfolio combinations.
package instruments

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcopist/rateslib/curve"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/fx"
	"github.com/marcopist/rateslib/solver"
)

// CurveRef names a pricing curve either by solver id or directly by object.
type CurveRef struct {
	ID    string
	Curve *curve.Curve
}

// ByID references a curve registered with the pricing solver.
func ByID(id string) CurveRef { return CurveRef{ID: id} }

// ByCurve references a curve object directly. When a solver is present the
// object is still resolved against it, subject to the solver's policy.
func ByCurve(c *curve.Curve) CurveRef { return CurveRef{Curve: c} }

// Pricing carries the market state an instrument prices against.
//
// Curves is shorthand that expands onto the four slots
// [forecast1, discount1, forecast2, discount2]:
//
//	1 curve:  c0 fills all four slots
//	2 curves: c0 forecasts both legs, c1 discounts both legs
//	3 curves: leg-specific forecasts c0/c2, shared discount c1
//	4 curves: slots as given
//
// Base is the reporting currency; empty means each instrument's natural
// (first leg) currency.
type Pricing struct {
	Curves []CurveRef
	Solver *solver.Solver
	FX     *fx.Forwards
	Base   string
}

type curveSet struct {
	fore1, disc1, fore2, disc2 *curve.Curve
}

func (p Pricing) resolve() (curveSet, error) {
	cs := make([]*curve.Curve, len(p.Curves))
	for i, ref := range p.Curves {
		c, err := p.resolveRef(ref)
		if err != nil {
			return curveSet{}, err
		}
		cs[i] = c
	}
	switch len(cs) {
	case 1:
		return curveSet{cs[0], cs[0], cs[0], cs[0]}, nil
	case 2:
		return curveSet{cs[0], cs[1], cs[0], cs[1]}, nil
	case 3:
		return curveSet{cs[0], cs[1], cs[2], cs[1]}, nil
	case 4:
		return curveSet{cs[0], cs[1], cs[2], cs[3]}, nil
	default:
		return curveSet{}, fmt.Errorf("instruments: want 1 to 4 pricing curves, got %d", len(cs))
	}
}

func (p Pricing) resolveRef(ref CurveRef) (*curve.Curve, error) {
	switch {
	case ref.Curve != nil:
		if p.Solver != nil {
			return p.Solver.Resolve(ref.Curve)
		}
		return ref.Curve, nil
	case ref.ID != "":
		if p.Solver == nil {
			return nil, fmt.Errorf("instruments: curve %q referenced by id without a solver", ref.ID)
		}
		return p.Solver.Curve(ref.ID)
	default:
		return nil, fmt.Errorf("instruments: empty curve reference")
	}
}

// forwards returns the FX forwards in effect: explicit first, then solver's.
func (p Pricing) forwards() *fx.Forwards {
	if p.FX != nil {
		return p.FX
	}
	if p.Solver != nil {
		return p.Solver.FX()
	}
	return nil
}

// fxScale converts an amount in ccy into base as of the given date. Same
// currency (or empty base) scales by one.
func (p Pricing) fxScale(ccy, base string, date time.Time) (dual.Number, error) {
	if base == "" || strings.EqualFold(ccy, base) {
		return dual.Const(1), nil
	}
	f := p.forwards()
	if f == nil {
		return dual.Number{}, fmt.Errorf("instruments: converting %s to %s requires fx forwards", ccy, base)
	}
	return f.Rate(strings.ToLower(ccy)+strings.ToLower(base), date)
}

// Instrument is anything with a present value and a quoted rate metric. Rate
// is the mid-market quote: a par rate in percent for swaps, a spread in bp
// for cross-currency swaps, a curve value for calibration instruments.
type Instrument interface {
	NPV(p Pricing) (dual.Number, error)
	Rate(p Pricing) (dual.Number, error)
}

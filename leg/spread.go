package leg

import (
	"fmt"
	"math"

	"github.com/marcopist/rateslib/dual"
)

// Below this curvature the quadratic collapses to its linear term.
const quadraticCurvatureTol = 1e-14

// SolveSpread returns the spread adjustment in bp that moves the leg NPV by
// deltaNPV.
//
// For IBOR legs and simple (non-compounded) spreads the response is linear
// and the solution is -deltaNPV / analyticDelta. For compounded spreads the
// NPV is locally quadratic in the spread; the leg is repriced once at AD
// order 2 against a synthetic spread variable and the quadratic is solved
// exactly. Curve and FX AD orders are restored before returning.
func (l *FloatLeg) SolveSpread(deltaNPV dual.Number, fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	if l.spreadIsLinear() {
		delta := l.AnalyticDelta(disc, fxScale)
		if delta.Real() == 0 {
			return dual.Number{}, fmt.Errorf("FloatLeg.SolveSpread: leg has no future cashflows")
		}
		return deltaNPV.Neg().Div(delta), nil
	}
	return l.solveSpreadQuadratic(deltaNPV, fore, disc, fxScale)
}

func (l *FloatLeg) spreadIsLinear() bool {
	if len(l.Periods) == 0 {
		return true
	}
	switch l.cfg.FixingMethod {
	case MethodIBOR, "":
		return true
	}
	switch l.cfg.SpreadCompound {
	case CompoundNoneSimple, "":
		return true
	}
	return false
}

// solveSpreadQuadratic expands NPV(z0+s) - NPV(z0) = b s + a s^2 around the
// current spread z0 and solves a s^2 + b s + c = 0 with c = -deltaNPV. The
// smaller root (-sqrt branch) is the financially meaningful one: it stays
// continuous with the linear solution as curvature vanishes.
func (l *FloatLeg) solveSpreadQuadratic(deltaNPV dual.Number, fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	holders := []dual.ADHolder{disc}
	if !isNilCurve(fore) {
		holders = append(holders, fore)
	}
	guard := dual.ElevateAD(dual.Order2, holders...)
	defer guard.Restore()
	prev := guard.Previous(0)

	saved := l.spread
	defer func() { l.spread = saved }()
	l.spread = dual.New2(saved.Real(), "spread_z")

	npv, err := l.NPV(fore, disc, dual.SetOrder(fxScale, dual.Order2))
	if err != nil {
		return dual.Number{}, fmt.Errorf("FloatLeg.SolveSpread: %w", err)
	}
	b := npv.Gradient("spread_z")
	a := 0.5 * npv.Gradient2("spread_z", "spread_z")
	c := deltaNPV.Neg()

	var s dual.Number
	if math.Abs(a) <= quadraticCurvatureTol {
		if b == 0 {
			return dual.Number{}, fmt.Errorf("FloatLeg.SolveSpread: npv insensitive to spread")
		}
		s = c.Scale(-1 / b)
	} else {
		discrim := c.Scale(-4 * a).AddFloat(b * b)
		if discrim.Real() < 0 {
			return dual.Number{}, fmt.Errorf("FloatLeg.SolveSpread: no real solution (discriminant %g)", discrim.Real())
		}
		s = discrim.Sqrt().Neg().AddFloat(-b).Scale(1 / (2 * a))
	}
	return dual.Strip(dual.SetOrder(s, prev), "spread_z"), nil
}

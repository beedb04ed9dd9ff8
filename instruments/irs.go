package instruments

import (
	"fmt"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/schedule"
)

// NotionalOverride selects how leg2's notional derives from leg1's.
type NotionalOverride int

const (
	// InheritNegated is the conventional two-leg swap: leg2 = -leg1.
	InheritNegated NotionalOverride = iota
	// Inherit copies leg1's notional unchanged.
	Inherit
	// Explicit uses the value supplied alongside the override.
	Explicit
)

// IRSSpec holds the terms of a fixed-for-float interest rate swap. A nil
// FixedRate means the swap prices at its mid-market rate.
type IRSSpec struct {
	Effective   time.Time
	Termination time.Time
	FreqMonths  int
	Convention  string
	Calendar    calendar.ID
	Currency    string
	PaymentLag  int
	// Notional is leg1's (fixed leg) notional; positive pays fixed.
	Notional float64
	// Leg2Override and Leg2Notional control the float leg's notional.
	Leg2Override NotionalOverride
	Leg2Notional float64
	FixedRate    *float64
	Float        leg.FloatConfig
}

// IRS is a fixed-for-float interest rate swap: leg1 fixed, leg2 float.
type IRS struct {
	spec  IRSSpec
	fixed *leg.FixedLeg
	float *leg.FloatLeg
}

// NewIRS builds both legs from a shared schedule.
func NewIRS(spec IRSSpec) (*IRS, error) {
	sched, err := schedule.Generate(schedule.Spec{
		Effective:   spec.Effective,
		Termination: spec.Termination,
		FreqMonths:  spec.FreqMonths,
		Calendar:    spec.Calendar,
		PaymentLag:  spec.PaymentLag,
		Convention:  spec.Convention,
	})
	if err != nil {
		return nil, fmt.Errorf("instruments.NewIRS: %w", err)
	}
	leg2Notional := -spec.Notional
	switch spec.Leg2Override {
	case Inherit:
		leg2Notional = spec.Notional
	case Explicit:
		leg2Notional = spec.Leg2Notional
	}
	return &IRS{
		spec:  spec,
		fixed: leg.NewFixedLeg(sched, spec.Notional, spec.Currency, false, false, spec.FixedRate),
		float: leg.NewFloatLeg(sched, leg2Notional, spec.Currency, false, false, spec.Float),
	}, nil
}

// Spec returns the swap's terms.
func (i *IRS) Spec() IRSSpec { return i.spec }

// FixedLeg returns leg1.
func (i *IRS) FixedLeg() *leg.FixedLeg { return i.fixed }

// FloatLeg returns leg2.
func (i *IRS) FloatLeg() *leg.FloatLeg { return i.float }

// Rate returns the mid-market fixed rate in percent: the coupon at which the
// fixed leg exactly offsets the float leg.
func (i *IRS) Rate(p Pricing) (dual.Number, error) {
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	one := dual.Const(1)
	npv2, err := i.float.NPV(cs.fore2, cs.disc2, one)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.Rate: %w", err)
	}
	r, err := i.fixed.SolveRate(npv2.Neg(), cs.disc1, one)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.Rate: %w", err)
	}
	return r, nil
}

// SolveMidMarket strikes the swap at its current mid-market rate.
func (i *IRS) SolveMidMarket(p Pricing) error {
	mid, err := i.Rate(p)
	if err != nil {
		return fmt.Errorf("IRS.SolveMidMarket: %w", err)
	}
	i.fixed.SetRate(mid.Real())
	return nil
}

// NPV reports the swap's present value in p.Base (default: the swap's own
// currency). A swap without a fixed rate is valued at its mid-market rate
// without mutating the instrument.
func (i *IRS) NPV(p Pricing) (dual.Number, error) {
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	fxs, err := p.fxScale(i.spec.Currency, p.Base, cs.disc1.Anchor())
	if err != nil {
		return dual.Number{}, err
	}
	if _, set := i.fixed.Rate(); !set {
		mid, err := i.Rate(p)
		if err != nil {
			return dual.Number{}, err
		}
		i.fixed.SetRate(mid.Real())
		defer i.fixed.ClearRate()
	}
	npv1, err := i.fixed.NPV(cs.fore1, cs.disc1, fxs)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.NPV: %w", err)
	}
	npv2, err := i.float.NPV(cs.fore2, cs.disc2, fxs)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.NPV: %w", err)
	}
	return npv1.Add(npv2), nil
}

// Spread returns the mid-market float spread in bp: the leg2 spread at which
// the swap's NPV (at the current fixed rate) is zero.
func (i *IRS) Spread(p Pricing) (dual.Number, error) {
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	one := dual.Const(1)
	npv1, err := i.fixed.NPV(cs.fore1, cs.disc1, one)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.Spread: %w", err)
	}
	npv2, err := i.float.NPV(cs.fore2, cs.disc2, one)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.Spread: %w", err)
	}
	adj, err := i.float.SolveSpread(npv1.Add(npv2).Neg(), cs.fore2, cs.disc2, one)
	if err != nil {
		return dual.Number{}, fmt.Errorf("IRS.Spread: %w", err)
	}
	return adj.AddFloat(i.float.Spread()), nil
}

// AnalyticDelta returns the fixed leg's analytic delta in p.Base.
func (i *IRS) AnalyticDelta(p Pricing) (dual.Number, error) {
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	fxs, err := p.fxScale(i.spec.Currency, p.Base, cs.disc1.Anchor())
	if err != nil {
		return dual.Number{}, err
	}
	return i.fixed.AnalyticDelta(cs.disc1, fxs), nil
}

// Cashflows reports both legs' cashflow rows.
func (i *IRS) Cashflows(p Pricing) ([]leg.CashflowRow, error) {
	cs, err := p.resolve()
	if err != nil {
		return nil, err
	}
	rows1, err := i.fixed.Cashflows(cs.fore1, cs.disc1)
	if err != nil {
		return nil, err
	}
	rows2, err := i.float.Cashflows(cs.fore2, cs.disc2)
	if err != nil {
		return nil, err
	}
	return append(rows1, rows2...), nil
}

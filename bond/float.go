package bond

import (
	"fmt"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/schedule"
	"github.com/marcopist/rateslib/utils"
)

// FloatBondSpec holds the immutable terms of a floating rate note.
type FloatBondSpec struct {
	Effective   time.Time
	Termination time.Time
	FreqMonths  int
	Convention  string
	Calendar    calendar.ID
	Currency    string
	// Notional defaults to 100 when zero.
	Notional   float64
	ExDivDays  int
	SettleLag  int
	PaymentLag int
	Float      leg.FloatConfig
}

// FloatRateBond is a floating rate note: floating coupons plus redemption.
type FloatRateBond struct {
	spec  FloatBondSpec
	sched *schedule.Schedule
	leg   *leg.FloatLeg
}

// NewFloatRateBond builds the note's schedule and coupon leg.
//
// For RFR coupons the ex-dividend window may not exceed the fixing method
// parameter: accrued interest inside the window needs every daily fixing
// published by the ex-div date, which only holds when observations lag at
// least as far as the window.
func NewFloatRateBond(spec FloatBondSpec) (*FloatRateBond, error) {
	if spec.Notional == 0 {
		spec.Notional = 100
	}
	switch spec.Float.FixingMethod {
	case leg.MethodRFRPaymentDelay, leg.MethodRFRObservation, leg.MethodRFRLookback:
		if spec.ExDivDays > spec.Float.MethodParam {
			return nil, fmt.Errorf("bond.NewFloatRateBond: ex-div days %d exceed rfr method param %d",
				spec.ExDivDays, spec.Float.MethodParam)
		}
	}
	sched, err := schedule.Generate(schedule.Spec{
		Effective:   spec.Effective,
		Termination: spec.Termination,
		FreqMonths:  spec.FreqMonths,
		Calendar:    spec.Calendar,
		PaymentLag:  spec.PaymentLag,
		Convention:  spec.Convention,
	})
	if err != nil {
		return nil, fmt.Errorf("bond.NewFloatRateBond: %w", err)
	}
	l := leg.NewFloatLeg(sched, spec.Notional, spec.Currency, false, true, spec.Float)
	return &FloatRateBond{spec: spec, sched: sched, leg: l}, nil
}

// Spec returns the note's terms.
func (b *FloatRateBond) Spec() FloatBondSpec { return b.spec }

// Leg returns the coupon leg.
func (b *FloatRateBond) Leg() *leg.FloatLeg { return b.leg }

// ExDiv reports whether a trade settling on the given date settles without
// the next coupon.
func (b *FloatRateBond) ExDiv(settlement time.Time) bool {
	return exDiv(b.sched, b.spec.Calendar, b.spec.ExDivDays, settlement)
}

// Accrued returns accrued interest per 100 notional at settlement.
//
// IBOR coupons accrue linearly on the period fixing. RFR coupons compound the
// observed daily fixings over a synthetic sub-period: [period start,
// settlement) normally, or minus the remaining [settlement, period end) stub
// when ex-dividend. Missing fixings surface as leg.ErrMissingFixing.
func (b *FloatRateBond) Accrued(settlement time.Time) (float64, error) {
	i := b.sched.IndexLeft(settlement)
	p := b.leg.Periods[i]
	spread := dual.Const(b.leg.Spread())

	switch b.spec.Float.FixingMethod {
	case leg.MethodIBOR, "":
		rate, err := p.Rate(nil, spread)
		if err != nil {
			return 0, fmt.Errorf("bond.Accrued: %w", err)
		}
		frac := accruedFraction(b.sched, settlement)
		if b.ExDiv(settlement) {
			frac -= 1
		}
		return frac * p.DCF * rate.Real(), nil
	default:
		start, end, sign := p.Start, settlement, 1.0
		if b.ExDiv(settlement) {
			start, end, sign = settlement, p.End, -1.0
		}
		if !end.After(start) {
			return 0, nil
		}
		dcf, err := utils.YearFraction(start, end, b.spec.Convention)
		if err != nil {
			return 0, fmt.Errorf("bond.Accrued: %w", err)
		}
		stub := p
		stub.Start, stub.End, stub.DCF, stub.Stub = start, end, dcf, true
		rate, err := stub.Rate(nil, spread)
		if err != nil {
			return 0, fmt.Errorf("bond.Accrued: %w", err)
		}
		return sign * dcf * rate.Real(), nil
	}
}

func (b *FloatRateBond) settlementFrom(disc leg.DiscountCurve) time.Time {
	return calendar.AddBusinessDays(b.spec.Calendar, disc.Anchor(), b.spec.SettleLag)
}

// NPV forecasts coupons on fore and discounts on disc for a trade settling
// SettleLag business days after the anchor, excluding the next coupon when
// settlement is ex-dividend.
func (b *FloatRateBond) NPV(fore, disc leg.DiscountCurve) (dual.Number, error) {
	settlement := b.settlementFrom(disc)
	i0 := b.sched.IndexLeft(settlement)
	exDividend := b.ExDiv(settlement)
	spread := dual.Const(b.leg.Spread())

	npv := dual.Const(0)
	for i := i0; i < len(b.leg.Periods); i++ {
		p := b.leg.Periods[i]
		if p.Payment.Before(settlement) || (i == i0 && exDividend) {
			continue
		}
		r, err := p.Rate(fore, spread)
		if err != nil {
			return dual.Number{}, fmt.Errorf("bond.NPV: %w", err)
		}
		npv = npv.Add(p.Cashflow(r).Mul(disc.DF(p.Payment)))
	}
	for _, e := range b.leg.Exchanges {
		if e.Payment.Before(settlement) {
			continue
		}
		npv = npv.Add(e.Amount.Mul(disc.DF(e.Payment)))
	}
	return npv, nil
}

// MetricSpread is the discount margin: the spread over the floating index
// repricing the note to par on the curves.
const MetricSpread = "spread"

// Rate prices the note off curves and reports the requested metric:
// clean_price, dirty_price or spread.
func (b *FloatRateBond) Rate(fore, disc leg.DiscountCurve, metric string) (dual.Number, error) {
	npv, err := b.NPV(fore, disc)
	if err != nil {
		return dual.Number{}, err
	}
	settlement := b.settlementFrom(disc)
	switch metric {
	case MetricDirtyPrice:
		return npv.Scale(-100 / b.spec.Notional).Div(disc.DF(settlement)), nil
	case MetricCleanPrice, "":
		dirty := npv.Scale(-100 / b.spec.Notional).Div(disc.DF(settlement))
		accrued, err := b.Accrued(settlement)
		if err != nil {
			return dual.Number{}, err
		}
		return dirty.AddFloat(-accrued), nil
	case MetricSpread:
		// target: dirty price of par, i.e. npv = -notional * df(settlement)
		target := disc.DF(settlement).Scale(-b.spec.Notional)
		adj, err := b.leg.SolveSpread(target.Sub(npv), fore, disc, dual.Const(1))
		if err != nil {
			return dual.Number{}, fmt.Errorf("bond.Rate: %w", err)
		}
		return adj.AddFloat(b.leg.Spread()), nil
	default:
		return dual.Number{}, fmt.Errorf("bond.Rate: unknown metric %q", metric)
	}
}

// Package leg implements cashflow periods and legs for securities and swaps,
// including the mid-market spread solver.
//
// Sign convention throughout: a period cashflow is -notional * dcf * rate/100,
// so a positive notional pays the leg. Rates are in percent, spreads in basis
// points.
package leg

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/utils"
)

// ErrMissingFixing is returned when a floating rate requires an observed
// fixing that is not available and no forecast curve was supplied.
var ErrMissingFixing = errors.New("missing fixing")

// DiscountCurve is the curve surface consumed by legs: discount-factor
// lookup, scoped AD-order control and the curve's reference date.
type DiscountCurve interface {
	DF(t time.Time) dual.Number
	SetADOrder(order int) int
	Anchor() time.Time
}

// Fixing methods for floating periods.
const (
	MethodIBOR            = "ibor"
	MethodRFRPaymentDelay = "rfr_payment_delay"
	MethodRFRObservation  = "rfr_observation_shift"
	MethodRFRLookback     = "rfr_lookback"
)

// Spread compounding methods for floating periods.
const (
	CompoundNoneSimple = "none_simple"
	CompoundISDA       = "isda_compounding"
	CompoundISDAFlat   = "isda_flat_compounding"
)

func isNilCurve(c DiscountCurve) bool {
	if c == nil {
		return true
	}
	rv := reflect.ValueOf(c)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// FixedPeriod is a single fixed-rate accrual period. The coupon rate is held
// at leg level.
type FixedPeriod struct {
	Start    time.Time
	End      time.Time
	Payment  time.Time
	Notional dual.Number
	DCF      float64
	Stub     bool
}

// Cashflow returns -notional * dcf * rate/100 for the given coupon rate (%).
func (p FixedPeriod) Cashflow(rate dual.Number) dual.Number {
	return rate.Mul(p.Notional).Scale(-p.DCF / 100)
}

// FloatPeriod is a single floating-rate accrual period, self-contained so
// synthetic stub periods (settlement accrual) can be priced standalone.
type FloatPeriod struct {
	Start    time.Time
	End      time.Time
	Payment  time.Time
	Notional dual.Number
	DCF      float64
	Stub     bool

	Convention     string
	FixingMethod   string
	MethodParam    int
	SpreadCompound string
	Calendar       calendar.ID
	// Fixings are observed rates (%) keyed by observation date.
	Fixings map[time.Time]float64
}

// Cashflow returns -notional * dcf * rate/100 for the given all-in rate (%).
func (p FloatPeriod) Cashflow(rate dual.Number) dual.Number {
	return rate.Mul(p.Notional).Scale(-p.DCF / 100)
}

// Rate returns the period's all-in floating rate in percent, combining
// observed fixings, forecast rates from fore and the leg spread (bp).
//
// For RFR methods the rate compounds daily observations; a required fixing
// that is unavailable with no forecast curve yields ErrMissingFixing.
func (p FloatPeriod) Rate(fore DiscountCurve, spreadBP dual.Number) (dual.Number, error) {
	sp := spreadBP.Scale(0.01) // bp -> percent
	switch p.FixingMethod {
	case MethodIBOR, "":
		r, err := p.iborRate(fore)
		if err != nil {
			return dual.Number{}, err
		}
		return r.Add(sp), nil
	case MethodRFRPaymentDelay, MethodRFRObservation, MethodRFRLookback:
		return p.rfrRate(fore, sp)
	default:
		return dual.Number{}, fmt.Errorf("FloatPeriod.Rate: unknown fixing method %q", p.FixingMethod)
	}
}

func (p FloatPeriod) iborRate(fore DiscountCurve) (dual.Number, error) {
	fixingDate := calendar.AddBusinessDays(p.Calendar, p.Start, -p.MethodParam)
	if fix, ok := p.Fixings[fixingDate]; ok {
		return dual.Const(fix), nil
	}
	if isNilCurve(fore) {
		return dual.Number{}, fmt.Errorf("FloatPeriod.Rate: ibor fixing %s: %w",
			fixingDate.Format("2006-01-02"), ErrMissingFixing)
	}
	return forwardRate(fore, p.Start, p.End, p.DCF), nil
}

// rfrRate compounds daily observations over the method's observation window.
// rfr_lookback reuses the shifted observation window (accrual-weight lookback
// is approximated by observation shift).
func (p FloatPeriod) rfrRate(fore DiscountCurve, sp dual.Number) (dual.Number, error) {
	obsStart, obsEnd := p.Start, p.End
	if p.FixingMethod == MethodRFRObservation || p.FixingMethod == MethodRFRLookback {
		obsStart = calendar.AddBusinessDays(p.Calendar, obsStart, -p.MethodParam)
		obsEnd = calendar.AddBusinessDays(p.Calendar, obsEnd, -p.MethodParam)
	}

	type obs struct {
		rate dual.Number
		dcf  float64
	}
	var observations []obs
	for d := obsStart; d.Before(obsEnd); {
		next := calendar.AddBusinessDays(p.Calendar, d, 1)
		if next.After(obsEnd) {
			next = obsEnd
		}
		dcf, err := utils.YearFraction(d, next, p.Convention)
		if err != nil {
			return dual.Number{}, fmt.Errorf("FloatPeriod.Rate: %w", err)
		}
		var r dual.Number
		if fix, ok := p.Fixings[d]; ok {
			r = dual.Const(fix)
		} else if isNilCurve(fore) {
			return dual.Number{}, fmt.Errorf("FloatPeriod.Rate: rfr fixing %s: %w",
				d.Format("2006-01-02"), ErrMissingFixing)
		} else {
			r = forwardRateDCF(fore, d, next, dcf)
		}
		observations = append(observations, obs{rate: r, dcf: dcf})
		d = next
	}
	if len(observations) == 0 {
		return sp, nil
	}

	switch p.SpreadCompound {
	case CompoundNoneSimple, "":
		prod := dual.Const(1)
		for _, o := range observations {
			prod = prod.Mul(o.rate.Scale(o.dcf / 100).AddFloat(1))
		}
		return prod.AddFloat(-1).Scale(100 / p.DCF).Add(sp), nil
	case CompoundISDA:
		prod := dual.Const(1)
		for _, o := range observations {
			prod = prod.Mul(o.rate.Add(sp).Scale(o.dcf / 100).AddFloat(1))
		}
		return prod.AddFloat(-1).Scale(100 / p.DCF), nil
	case CompoundISDAFlat:
		// Flat compounding: prior accruals compound at the floating rate
		// only; the spread accrues simply.
		total := dual.Const(0)
		for _, o := range observations {
			daily := o.rate.Add(sp).Scale(o.dcf / 100).Add(total.Mul(o.rate.Scale(o.dcf / 100)))
			total = total.Add(daily)
		}
		return total.Scale(100 / p.DCF), nil
	default:
		return dual.Number{}, fmt.Errorf("FloatPeriod.Rate: unknown spread compound method %q", p.SpreadCompound)
	}
}

// ExchangePeriod is a notional exchange cashflow (initial, final or
// mark-to-market reset). Amount carries FX sensitivity for MTM resets.
type ExchangePeriod struct {
	Payment time.Time
	Amount  dual.Number
}

// forwardRate infers a simple forward rate (%) over [start, end) from
// discount factors.
func forwardRate(c DiscountCurve, start, end time.Time, dcf float64) dual.Number {
	return forwardRateDCF(c, start, end, dcf)
}

func forwardRateDCF(c DiscountCurve, start, end time.Time, dcf float64) dual.Number {
	if dcf == 0 {
		return dual.Const(0)
	}
	return c.DF(start).Div(c.DF(end)).AddFloat(-1).Scale(100 / dcf)
}

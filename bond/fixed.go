// Package bond prices fixed and floating rate securities: accrued interest
// with ex-dividend handling, yield-to-maturity, duration and convexity, and
// curve-based pricing. Yields solved by root-finding propagate input
// sensitivities exactly via the implicit function theorem.
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

// Yield bracket for the YTM root search, in percent.
const (
	ytmLowerBound = -99.0
	ytmUpperBound = 10000.0
)

// FixedBondSpec holds the immutable terms of a fixed rate bond.
type FixedBondSpec struct {
	Effective   time.Time
	Termination time.Time
	// FreqMonths is the coupon period in months (6 = semi-annual).
	FreqMonths int
	Convention string
	Calendar   calendar.ID
	Currency   string
	// FixedRate is the annual coupon in percent.
	FixedRate float64
	// Notional defaults to 100 when zero.
	Notional float64
	// ExDivDays is the ex-dividend window in business days before a coupon.
	ExDivDays int
	// SettleLag is the business-day lag from a curve's anchor to settlement.
	SettleLag int
	PaymentLag int
}

// FixedRateBond is a bullet bond: fixed coupons plus final redemption.
type FixedRateBond struct {
	spec  FixedBondSpec
	sched *schedule.Schedule
	leg   *leg.FixedLeg
}

// NewFixedRateBond builds the bond's schedule and coupon leg.
func NewFixedRateBond(spec FixedBondSpec) (*FixedRateBond, error) {
	if spec.Notional == 0 {
		spec.Notional = 100
	}
	if spec.ExDivDays < 0 {
		return nil, fmt.Errorf("bond.NewFixedRateBond: negative ex-div days %d", spec.ExDivDays)
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
		return nil, fmt.Errorf("bond.NewFixedRateBond: %w", err)
	}
	rate := spec.FixedRate
	l := leg.NewFixedLeg(sched, spec.Notional, spec.Currency, false, true, &rate)
	return &FixedRateBond{spec: spec, sched: sched, leg: l}, nil
}

// Spec returns the bond's terms.
func (b *FixedRateBond) Spec() FixedBondSpec { return b.spec }

// Leg returns the coupon leg (coupons plus redemption exchange).
func (b *FixedRateBond) Leg() *leg.FixedLeg { return b.leg }

// ExDiv reports whether a trade settling on the given date settles without
// the next coupon: settlement on or after ex-div business days before the
// coupon date.
func (b *FixedRateBond) ExDiv(settlement time.Time) bool {
	return exDiv(b.sched, b.spec.Calendar, b.spec.ExDivDays, settlement)
}

// AccruedFraction returns the linear-days fraction of the current coupon
// period elapsed at settlement.
func (b *FixedRateBond) AccruedFraction(settlement time.Time) float64 {
	return accruedFraction(b.sched, settlement)
}

// Accrued returns accrued interest per 100 notional at settlement, negative
// inside the ex-dividend window.
func (b *FixedRateBond) Accrued(settlement time.Time) float64 {
	i := b.sched.IndexLeft(settlement)
	frac := b.AccruedFraction(settlement)
	if b.ExDiv(settlement) {
		frac -= 1
	}
	p := b.sched.Periods[i]
	return frac * p.DCF * b.spec.FixedRate
}

// priceFromY computes the street-convention price per 100 from a yield
// carried as a dual number, so derivatives of price with respect to the yield
// variable fall out for free.
//
//	v     = 1 / (1 + y/(100 f))
//	price = v^fd0 * sum_k cf_k v^k   (per 100, coupon in ex-div skipped)
//
// fd0 is the fractional discount exponent of the first remaining cashflow:
// the unelapsed fraction of the current period, rescaled by dcf*f for stubs.
func (b *FixedRateBond) priceFromY(y dual.Number, settlement time.Time, dirty bool) dual.Number {
	f := b.sched.Frequency()
	v := y.Scale(1 / (100 * f)).AddFloat(1).Inv()

	i0 := b.sched.IndexLeft(settlement)
	accFrac := b.AccruedFraction(settlement)
	p0 := b.sched.Periods[i0]
	fd0 := 1 - accFrac
	if p0.Stub {
		fd0 = p0.DCF * f * (1 - accFrac)
	}

	rate := dual.Const(b.spec.FixedRate)
	exDividend := b.ExDiv(settlement)
	total := dual.Const(0)
	for i := i0; i < len(b.leg.Periods); i++ {
		if i == i0 && exDividend {
			continue
		}
		total = total.Add(b.leg.Periods[i].Cashflow(rate).Mul(v.Pow(float64(i - i0))))
	}
	// redemption discounts with the final coupon
	redemption := dual.Const(-b.spec.Notional)
	total = total.Add(redemption.Mul(v.Pow(float64(len(b.leg.Periods) - 1 - i0))))

	price := total.Mul(v.Pow(fd0)).Scale(-100 / b.spec.Notional)
	if !dirty {
		price = price.AddFloat(-b.Accrued(settlement))
	}
	return price
}

// Price returns the price per 100 at the given yield (%).
func (b *FixedRateBond) Price(ytm float64, settlement time.Time, dirty bool) float64 {
	return b.priceFromY(dual.Const(ytm), settlement, dirty).Real()
}

// YTM solves the yield (%) matching the given price per 100. The price may
// carry sensitivities (e.g. to curve nodes); they propagate through the root
// via the implicit function theorem:
//
//	dy/dP   = 1 / P'(y)
//	d2y/dP2 = -P''(y) / P'(y)^3
func (b *FixedRateBond) YTM(price dual.Number, settlement time.Time, dirty bool) (dual.Number, error) {
	target := price.Real()
	y, err := brentRoot(func(y float64) float64 {
		return b.Price(y, settlement, dirty) - target
	}, ytmLowerBound, ytmUpperBound)
	if err != nil {
		return dual.Number{}, fmt.Errorf("bond.YTM: %w", err)
	}
	if price.Order() == dual.Order0 {
		return dual.Const(y), nil
	}
	pd := b.priceFromY(dual.New2(y, "y"), settlement, dirty)
	d1 := pd.Gradient("y")
	d2 := pd.Gradient2("y", "y")
	if d1 == 0 {
		return dual.Number{}, fmt.Errorf("bond.YTM: price stationary in yield at %g", y)
	}
	return dual.Chain(price, y, 1/d1, -d2/(d1*d1*d1)), nil
}

// Duration metrics.
const (
	MetricRisk     = "risk"     // -dP/dy per 100
	MetricModified = "modified" // -dP/dy / P * 100
	MetricDuration = "duration" // Macaulay
)

// Duration returns the requested duration metric at the given yield (%).
func (b *FixedRateBond) Duration(ytm float64, settlement time.Time, metric string) (float64, error) {
	pd := b.priceFromY(dual.New(ytm, "y"), settlement, true)
	risk := -pd.Gradient("y")
	switch metric {
	case MetricRisk:
		return risk, nil
	case MetricModified:
		return risk / pd.Real() * 100, nil
	case MetricDuration:
		f := b.sched.Frequency()
		return risk / pd.Real() * 100 * (1 + ytm/(100*f)), nil
	default:
		return 0, fmt.Errorf("bond.Duration: unknown metric %q", metric)
	}
}

// Convexity returns d2P/dy2 per 100 at the given yield (%).
func (b *FixedRateBond) Convexity(ytm float64, settlement time.Time) float64 {
	pd := b.priceFromY(dual.New2(ytm, "y"), settlement, true)
	return pd.Gradient2("y", "y")
}

// settlementFrom lags a curve anchor by the bond's settle convention.
func (b *FixedRateBond) settlementFrom(disc leg.DiscountCurve) time.Time {
	return calendar.AddBusinessDays(b.spec.Calendar, disc.Anchor(), b.spec.SettleLag)
}

// NPV discounts the bond's remaining cashflows on disc for a trade settling
// SettleLag business days after the curve anchor; the next coupon is excluded
// when that settlement is ex-dividend.
func (b *FixedRateBond) NPV(disc leg.DiscountCurve) (dual.Number, error) {
	settlement := b.settlementFrom(disc)
	i0 := b.sched.IndexLeft(settlement)
	exDividend := b.ExDiv(settlement)
	rate := dual.Const(b.spec.FixedRate)

	npv := dual.Const(0)
	for i := i0; i < len(b.leg.Periods); i++ {
		p := b.leg.Periods[i]
		if p.Payment.Before(settlement) || (i == i0 && exDividend) {
			continue
		}
		npv = npv.Add(p.Cashflow(rate).Mul(disc.DF(p.Payment)))
	}
	for _, e := range b.leg.Exchanges {
		if e.Payment.Before(settlement) {
			continue
		}
		npv = npv.Add(e.Amount.Mul(disc.DF(e.Payment)))
	}
	return npv, nil
}

// Price metrics for curve-based Rate.
const (
	MetricCleanPrice = "clean_price"
	MetricDirtyPrice = "dirty_price"
	MetricYTM        = "ytm"
)

// Rate prices the bond off a discount curve and reports the requested
// metric. The ytm metric carries curve-node sensitivities through the yield
// solve.
func (b *FixedRateBond) Rate(disc leg.DiscountCurve, metric string) (dual.Number, error) {
	npv, err := b.NPV(disc)
	if err != nil {
		return dual.Number{}, err
	}
	settlement := b.settlementFrom(disc)
	dirty := npv.Scale(-100 / b.spec.Notional).Div(disc.DF(settlement))
	switch metric {
	case MetricDirtyPrice:
		return dirty, nil
	case MetricCleanPrice, "":
		return dirty.AddFloat(-b.Accrued(settlement)), nil
	case MetricYTM:
		return b.YTM(dirty, settlement, true)
	default:
		return dual.Number{}, fmt.Errorf("bond.Rate: unknown metric %q", metric)
	}
}

// exDiv and accruedFraction are shared with FloatRateBond.

func exDiv(s *schedule.Schedule, cal calendar.ID, exDivDays int, settlement time.Time) bool {
	i := s.IndexLeft(settlement)
	couponDate := s.Periods[i].End
	exDate := calendar.BusinessDaysBefore(cal, couponDate, exDivDays)
	return !settlement.Before(exDate)
}

func accruedFraction(s *schedule.Schedule, settlement time.Time) float64 {
	i := s.IndexLeft(settlement)
	p := s.Periods[i]
	return utils.Days(p.Start, settlement) / utils.Days(p.Start, p.End)
}

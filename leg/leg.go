package leg

import (
	"fmt"
	"time"

	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/schedule"
)

// Leg is the common surface instruments price against. NPV and AnalyticDelta
// are expressed in the leg's own currency scaled by fxScale (pass
// dual.Const(1) for domestic reporting).
type Leg interface {
	NPV(fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error)
	AnalyticDelta(disc DiscountCurve, fxScale dual.Number) dual.Number
	SolveSpread(deltaNPV dual.Number, fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error)
	Cashflows(fore, disc DiscountCurve) ([]CashflowRow, error)
	Notional() float64
	SetNotional(n float64)
	Currency() string
}

// CashflowRow is one line of a leg's cashflow report (real parts only).
type CashflowRow struct {
	Type     string    `csv:"type"`
	Start    time.Time `csv:"-"`
	End      time.Time `csv:"-"`
	Payment  time.Time `csv:"-"`
	Notional float64   `csv:"notional"`
	DCF      float64   `csv:"dcf"`
	Rate     float64   `csv:"rate"`
	Cashflow float64   `csv:"cashflow"`
	DF       float64   `csv:"df"`
	NPV      float64   `csv:"npv"`
}

// FixedLeg pays a fixed coupon, optionally with initial and final notional
// exchanges. The coupon rate may be left unset, in which case coupons
// contribute nothing to NPV (the baseline used when solving a mid-market
// rate).
type FixedLeg struct {
	Schedule  *schedule.Schedule
	Periods   []FixedPeriod
	Exchanges []ExchangePeriod

	notional  float64
	currency  string
	initExch  bool
	finalExch bool
	rate      float64
	rateSet   bool
}

// NewFixedLeg builds a fixed leg from a generated schedule. fixedRate is in
// percent; nil leaves the coupon unset. initExch and finalExch control the
// notional exchanges (swaps use both or neither; a bond redemption is a final
// exchange only).
func NewFixedLeg(s *schedule.Schedule, notional float64, currency string, initExch, finalExch bool, fixedRate *float64) *FixedLeg {
	l := &FixedLeg{
		Schedule:  s,
		notional:  notional,
		currency:  currency,
		initExch:  initExch,
		finalExch: finalExch,
	}
	if fixedRate != nil {
		l.rate = *fixedRate
		l.rateSet = true
	}
	l.rebuild()
	return l
}

func (l *FixedLeg) rebuild() {
	l.Periods = l.Periods[:0]
	for _, p := range l.Schedule.Periods {
		l.Periods = append(l.Periods, FixedPeriod{
			Start:    p.Start,
			End:      p.End,
			Payment:  p.Payment,
			Notional: dual.Const(l.notional),
			DCF:      p.DCF,
			Stub:     p.Stub,
		})
	}
	l.Exchanges = buildExchanges(l.Periods[0].Start, l.Periods[len(l.Periods)-1].Payment,
		l.notional, l.initExch, l.finalExch)
}

// Notional returns the leg notional.
func (l *FixedLeg) Notional() float64 { return l.notional }

// SetNotional replaces the leg notional and rebuilds periods and exchanges.
func (l *FixedLeg) SetNotional(n float64) {
	l.notional = n
	l.rebuild()
}

// Currency returns the leg's settlement currency.
func (l *FixedLeg) Currency() string { return l.currency }

// Rate returns the coupon rate (%) and whether it has been set.
func (l *FixedLeg) Rate() (float64, bool) { return l.rate, l.rateSet }

// SetRate sets the coupon rate in percent.
func (l *FixedLeg) SetRate(r float64) {
	l.rate = r
	l.rateSet = true
}

// ClearRate unsets the coupon rate.
func (l *FixedLeg) ClearRate() {
	l.rate = 0
	l.rateSet = false
}

func (l *FixedLeg) couponRate() dual.Number {
	if !l.rateSet {
		return dual.Const(0)
	}
	return dual.Const(l.rate)
}

// NPV discounts all cashflows paying on or after the curve anchor. fore is
// ignored for fixed legs but kept for interface symmetry.
func (l *FixedLeg) NPV(fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	anchor := disc.Anchor()
	rate := l.couponRate()
	npv := dual.Const(0)
	for _, p := range l.Periods {
		if p.Payment.Before(anchor) {
			continue
		}
		npv = npv.Add(p.Cashflow(rate).Mul(disc.DF(p.Payment)))
	}
	for _, e := range l.Exchanges {
		if e.Payment.Before(anchor) {
			continue
		}
		npv = npv.Add(e.Amount.Mul(disc.DF(e.Payment)))
	}
	return npv.Mul(fxScale), nil
}

// AnalyticDelta returns dNPV per -1bp of coupon: notional * sum(dcf*df) * 1e-4.
func (l *FixedLeg) AnalyticDelta(disc DiscountCurve, fxScale dual.Number) dual.Number {
	return analyticDelta(fixedAsDelta(l.Periods), disc, fxScale)
}

// SolveSpread returns the coupon adjustment in bp that moves the leg NPV by
// deltaNPV. Fixed coupons respond linearly: s = -deltaNPV / delta.
func (l *FixedLeg) SolveSpread(deltaNPV dual.Number, fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	delta := l.AnalyticDelta(disc, fxScale)
	if delta.Real() == 0 {
		return dual.Number{}, fmt.Errorf("FixedLeg.SolveSpread: leg has no future cashflows")
	}
	return deltaNPV.Neg().Div(delta), nil
}

// SolveRate returns the coupon rate (%) at which the leg NPV equals
// targetNPV. The NPV is affine in the rate, so the solution is exact.
func (l *FixedLeg) SolveRate(targetNPV dual.Number, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	anchor := disc.Anchor()
	// NPV(r) = -r/100 * S + X with S the discounted accrual weight and X the
	// exchange NPV.
	s := dual.Const(0)
	for _, p := range l.Periods {
		if p.Payment.Before(anchor) {
			continue
		}
		s = s.Add(p.Notional.Mul(disc.DF(p.Payment)).Scale(p.DCF))
	}
	x := dual.Const(0)
	for _, e := range l.Exchanges {
		if e.Payment.Before(anchor) {
			continue
		}
		x = x.Add(e.Amount.Mul(disc.DF(e.Payment)))
	}
	s = s.Mul(fxScale)
	x = x.Mul(fxScale)
	if s.Real() == 0 {
		return dual.Number{}, fmt.Errorf("FixedLeg.SolveRate: leg has no future accrual")
	}
	return x.Sub(targetNPV).Scale(100).Div(s), nil
}

// Cashflows reports the leg's cashflow rows, including historical periods.
func (l *FixedLeg) Cashflows(fore, disc DiscountCurve) ([]CashflowRow, error) {
	rate := l.couponRate()
	var rows []CashflowRow
	for _, p := range l.Periods {
		cf := p.Cashflow(rate)
		df := disc.DF(p.Payment)
		rows = append(rows, CashflowRow{
			Type:     "FixedPeriod",
			Start:    p.Start,
			End:      p.End,
			Payment:  p.Payment,
			Notional: p.Notional.Real(),
			DCF:      p.DCF,
			Rate:     rate.Real(),
			Cashflow: cf.Real(),
			DF:       df.Real(),
			NPV:      cf.Mul(df).Real(),
		})
	}
	appendExchangeRows(&rows, l.Exchanges, disc)
	return rows, nil
}

// FloatConfig collects the floating-specific leg parameters.
type FloatConfig struct {
	FixingMethod   string
	MethodParam    int
	SpreadCompound string
	// Fixings are observed rates (%) keyed by observation date.
	Fixings map[time.Time]float64
	// SpreadBP is the initial float spread in basis points.
	SpreadBP float64
}

// FloatLeg pays a floating coupon plus spread, optionally with notional
// exchanges.
type FloatLeg struct {
	Schedule  *schedule.Schedule
	Periods   []FloatPeriod
	Exchanges []ExchangePeriod

	notional  float64
	currency  string
	initExch  bool
	finalExch bool
	cfg       FloatConfig
	spread    dual.Number // bp
}

// NewFloatLeg builds a floating leg from a generated schedule.
func NewFloatLeg(s *schedule.Schedule, notional float64, currency string, initExch, finalExch bool, cfg FloatConfig) *FloatLeg {
	l := &FloatLeg{
		Schedule:  s,
		notional:  notional,
		currency:  currency,
		initExch:  initExch,
		finalExch: finalExch,
		cfg:       cfg,
		spread:    dual.Const(cfg.SpreadBP),
	}
	l.rebuild()
	return l
}

func (l *FloatLeg) rebuild() {
	l.Periods = l.Periods[:0]
	for _, p := range l.Schedule.Periods {
		l.Periods = append(l.Periods, FloatPeriod{
			Start:          p.Start,
			End:            p.End,
			Payment:        p.Payment,
			Notional:       dual.Const(l.notional),
			DCF:            p.DCF,
			Stub:           p.Stub,
			Convention:     l.Schedule.Spec.Convention,
			FixingMethod:   l.cfg.FixingMethod,
			MethodParam:    l.cfg.MethodParam,
			SpreadCompound: l.cfg.SpreadCompound,
			Calendar:       l.Schedule.Spec.Calendar,
			Fixings:        l.cfg.Fixings,
		})
	}
	l.Exchanges = buildExchanges(l.Periods[0].Start, l.Periods[len(l.Periods)-1].Payment,
		l.notional, l.initExch, l.finalExch)
}

func buildExchanges(start, finalPay time.Time, notional float64, initExch, finalExch bool) []ExchangePeriod {
	var out []ExchangePeriod
	if initExch {
		out = append(out, ExchangePeriod{Payment: start, Amount: dual.Const(notional)})
	}
	if finalExch {
		out = append(out, ExchangePeriod{Payment: finalPay, Amount: dual.Const(-notional)})
	}
	return out
}

// Notional returns the leg notional.
func (l *FloatLeg) Notional() float64 { return l.notional }

// SetNotional replaces the leg notional and rebuilds periods and exchanges.
func (l *FloatLeg) SetNotional(n float64) {
	l.notional = n
	l.rebuild()
}

// Currency returns the leg's settlement currency.
func (l *FloatLeg) Currency() string { return l.currency }

// Spread returns the float spread in bp (real part).
func (l *FloatLeg) Spread() float64 { return l.spread.Real() }

// SetSpread sets the float spread in bp.
func (l *FloatLeg) SetSpread(bp float64) { l.spread = dual.Const(bp) }

// NPV discounts all cashflows paying on or after the curve anchor, forecasting
// rates from fore.
func (l *FloatLeg) NPV(fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	anchor := disc.Anchor()
	npv := dual.Const(0)
	for _, p := range l.Periods {
		if p.Payment.Before(anchor) {
			continue
		}
		r, err := p.Rate(fore, l.spread)
		if err != nil {
			return dual.Number{}, fmt.Errorf("FloatLeg.NPV: %w", err)
		}
		npv = npv.Add(p.Cashflow(r).Mul(disc.DF(p.Payment)))
	}
	for _, e := range l.Exchanges {
		if e.Payment.Before(anchor) {
			continue
		}
		npv = npv.Add(e.Amount.Mul(disc.DF(e.Payment)))
	}
	return npv.Mul(fxScale), nil
}

// AnalyticDelta returns dNPV per -1bp of spread under simple (non-compounded)
// spread accrual: notional * sum(dcf*df) * 1e-4.
func (l *FloatLeg) AnalyticDelta(disc DiscountCurve, fxScale dual.Number) dual.Number {
	return analyticDelta(floatAsDelta(l.Periods), disc, fxScale)
}

// Cashflows reports the leg's cashflow rows. Historical periods with missing
// fixings report a zero rate rather than failing the whole report.
func (l *FloatLeg) Cashflows(fore, disc DiscountCurve) ([]CashflowRow, error) {
	var rows []CashflowRow
	for _, p := range l.Periods {
		row := CashflowRow{
			Type:     "FloatPeriod",
			Start:    p.Start,
			End:      p.End,
			Payment:  p.Payment,
			Notional: p.Notional.Real(),
			DCF:      p.DCF,
		}
		if r, err := p.Rate(fore, l.spread); err == nil {
			cf := p.Cashflow(r)
			df := disc.DF(p.Payment)
			row.Rate = r.Real()
			row.Cashflow = cf.Real()
			row.DF = df.Real()
			row.NPV = cf.Mul(df).Real()
		}
		rows = append(rows, row)
	}
	appendExchangeRows(&rows, l.Exchanges, disc)
	return rows, nil
}

// deltaPeriod is the slice of period data AnalyticDelta needs.
type deltaPeriod struct {
	payment  time.Time
	notional dual.Number
	dcf      float64
}

func fixedAsDelta(ps []FixedPeriod) []deltaPeriod {
	out := make([]deltaPeriod, len(ps))
	for i, p := range ps {
		out[i] = deltaPeriod{p.Payment, p.Notional, p.DCF}
	}
	return out
}

func floatAsDelta(ps []FloatPeriod) []deltaPeriod {
	out := make([]deltaPeriod, len(ps))
	for i, p := range ps {
		out[i] = deltaPeriod{p.Payment, p.Notional, p.DCF}
	}
	return out
}

func analyticDelta(ps []deltaPeriod, disc DiscountCurve, fxScale dual.Number) dual.Number {
	anchor := disc.Anchor()
	d := dual.Const(0)
	for _, p := range ps {
		if p.payment.Before(anchor) {
			continue
		}
		d = d.Add(p.notional.Mul(disc.DF(p.payment)).Scale(p.dcf))
	}
	return d.Scale(1e-4).Mul(fxScale)
}

func appendExchangeRows(rows *[]CashflowRow, exchanges []ExchangePeriod, disc DiscountCurve) {
	for _, e := range exchanges {
		df := disc.DF(e.Payment)
		*rows = append(*rows, CashflowRow{
			Type:     "Exchange",
			Payment:  e.Payment,
			Notional: e.Amount.Real(),
			Cashflow: e.Amount.Real(),
			DF:       df.Real(),
			NPV:      e.Amount.Mul(df).Real(),
		})
	}
}

package instruments

import (
	"fmt"
	"time"

	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/utils"
)

// Spread is a two-instrument curve spread. Rate quotes far minus near; NPV
// sums both positions.
type Spread struct {
	Near Instrument
	Far  Instrument
}

// NPV sums the two positions. Both are converted into p.Base by their own
// NPV methods; mixing currencies without a base is the caller's
// responsibility.
func (s Spread) NPV(p Pricing) (dual.Number, error) {
	a, err := s.Near.NPV(p)
	if err != nil {
		return dual.Number{}, err
	}
	b, err := s.Far.NPV(p)
	if err != nil {
		return dual.Number{}, err
	}
	return a.Add(b), nil
}

// Rate returns far rate minus near rate, in the instruments' own quote units.
func (s Spread) Rate(p Pricing) (dual.Number, error) {
	a, err := s.Near.Rate(p)
	if err != nil {
		return dual.Number{}, err
	}
	b, err := s.Far.Rate(p)
	if err != nil {
		return dual.Number{}, err
	}
	return b.Sub(a), nil
}

// Fly is a three-instrument butterfly. Rate quotes -near + 2*mid - far.
type Fly struct {
	Near Instrument
	Mid  Instrument
	Far  Instrument
}

// NPV sums the three positions.
func (f Fly) NPV(p Pricing) (dual.Number, error) {
	total := dual.Const(0)
	for _, i := range []Instrument{f.Near, f.Mid, f.Far} {
		npv, err := i.NPV(p)
		if err != nil {
			return dual.Number{}, err
		}
		total = total.Add(npv)
	}
	return total, nil
}

// Rate returns the butterfly quote -near + 2*mid - far.
func (f Fly) Rate(p Pricing) (dual.Number, error) {
	a, err := f.Near.Rate(p)
	if err != nil {
		return dual.Number{}, err
	}
	b, err := f.Mid.Rate(p)
	if err != nil {
		return dual.Number{}, err
	}
	c, err := f.Far.Rate(p)
	if err != nil {
		return dual.Number{}, err
	}
	return b.Scale(2).Sub(a).Sub(c), nil
}

// Portfolio aggregates positions. It has no single quoted rate.
type Portfolio []Instrument

// NPV sums the positions' NPVs. Positions in different currencies should be
// priced with an explicit p.Base.
func (pf Portfolio) NPV(p Pricing) (dual.Number, error) {
	total := dual.Const(0)
	for n, i := range pf {
		npv, err := i.NPV(p)
		if err != nil {
			return dual.Number{}, fmt.Errorf("portfolio position %d: %w", n, err)
		}
		total = total.Add(npv)
	}
	return total, nil
}

// Rate is undefined for a portfolio.
func (pf Portfolio) Rate(p Pricing) (dual.Number, error) {
	return dual.Number{}, fmt.Errorf("portfolio has no single rate")
}

// Value metrics.
const (
	ValueDF     = "df"
	ValueCCZero = "cc_zero_rate"
)

// Value is a calibration instrument quoting a raw curve value at a date: the
// discount factor itself or the continuously compounded zero rate (%,
// ACT/365F).
type Value struct {
	Date   time.Time
	Metric string
}

// NPV is undefined: a Value has no cashflows.
func (v Value) NPV(p Pricing) (dual.Number, error) {
	return dual.Number{}, fmt.Errorf("value instrument has no cashflows")
}

// Rate reads the first pricing curve at the date.
func (v Value) Rate(p Pricing) (dual.Number, error) {
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	df := cs.fore1.DF(v.Date)
	switch v.Metric {
	case ValueDF, "":
		return df, nil
	case ValueCCZero:
		t := utils.Days(cs.fore1.Anchor(), v.Date) / 365
		if t <= 0 {
			return dual.Number{}, fmt.Errorf("value: date %s not after curve anchor", v.Date.Format("2006-01-02"))
		}
		return df.Log().Scale(-100 / t), nil
	default:
		return dual.Number{}, fmt.Errorf("value: unknown metric %q", v.Metric)
	}
}

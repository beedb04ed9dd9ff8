// Package fx provides forward FX rates derived from spot rates and
// per-currency discount curves via interest rate parity.
package fx

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcopist/rateslib/curve"
	"github.com/marcopist/rateslib/dual"
)

// Forwards derives forward FX rates for currency pairs. Spot rates are AD
// variables named "fx_<pair>" so FX sensitivities propagate alongside curve
// sensitivities.
type Forwards struct {
	spots      map[string]float64
	settlement time.Time // spot settlement; zero means immediate
	curves     map[string]*curve.Curve
	ad         int
}

// NewForwards creates an FX forwards object. Pair keys are 6-letter lowercase
// codes ("eurusd"); curves are keyed by 3-letter currency code and must cover
// every currency referenced by a pair. A zero settlement means the spot rates
// settle immediately (on the curves' anchor dates).
func NewForwards(spots map[string]float64, settlement time.Time, curves map[string]*curve.Curve) (*Forwards, error) {
	f := &Forwards{
		spots:      make(map[string]float64, len(spots)),
		settlement: settlement,
		curves:     curves,
	}
	for pair, rate := range spots {
		pair = strings.ToLower(pair)
		if len(pair) != 6 {
			return nil, fmt.Errorf("fx.NewForwards: invalid pair %q", pair)
		}
		if _, ok := curves[pair[:3]]; !ok {
			return nil, fmt.Errorf("fx.NewForwards: no curve for currency %q", pair[:3])
		}
		if _, ok := curves[pair[3:]]; !ok {
			return nil, fmt.Errorf("fx.NewForwards: no curve for currency %q", pair[3:])
		}
		f.spots[pair] = rate
	}
	return f, nil
}

// ADOrder returns the current AD order of the spot variables.
func (f *Forwards) ADOrder() int { return f.ad }

// SetADOrder switches the AD order of the spot variables and of the owned
// curves, returning the prior spot order.
func (f *Forwards) SetADOrder(order int) int {
	prev := f.ad
	f.ad = order
	for _, c := range f.curves {
		c.SetADOrder(order)
	}
	return prev
}

func (f *Forwards) spot(pair string) (dual.Number, error) {
	rate, ok := f.spots[pair]
	if !ok {
		// try the inverse quotation
		inv := pair[3:] + pair[:3]
		if r, ok2 := f.spots[inv]; ok2 {
			n, err := f.spotNumber(inv, r)
			if err != nil {
				return dual.Number{}, err
			}
			return n.Inv(), nil
		}
		return dual.Number{}, fmt.Errorf("fx: no spot rate for pair %q", pair)
	}
	return f.spotNumber(pair, rate)
}

func (f *Forwards) spotNumber(pair string, rate float64) (dual.Number, error) {
	v := "fx_" + pair
	switch f.ad {
	case dual.Order1:
		return dual.New(rate, v), nil
	case dual.Order2:
		return dual.New2(rate, v), nil
	default:
		return dual.Const(rate), nil
	}
}

// Rate returns the forward rate for the pair at the given settlement date
// using interest rate parity:
//
//	fwd(t) = spot * DF_base(t)/DF_quote(t) * DF_quote(s)/DF_base(s)
//
// where base is the pair's first currency and s the spot settlement date (the
// second factor drops out for immediate-settlement spots).
func (f *Forwards) Rate(pair string, date time.Time) (dual.Number, error) {
	pair = strings.ToLower(pair)
	if len(pair) != 6 {
		return dual.Number{}, fmt.Errorf("fx.Rate: invalid pair %q", pair)
	}
	s, err := f.spot(pair)
	if err != nil {
		return dual.Number{}, fmt.Errorf("fx.Rate: %w", err)
	}
	base, quote := f.curves[pair[:3]], f.curves[pair[3:]]
	if base == nil || quote == nil {
		return dual.Number{}, fmt.Errorf("fx.Rate: missing curve for pair %q", pair)
	}
	if !f.settlement.IsZero() && date.Equal(f.settlement) {
		return s, nil
	}
	out := s.Mul(base.DF(date)).Div(quote.DF(date))
	if !f.settlement.IsZero() {
		out = out.Mul(quote.DF(f.settlement)).Div(base.DF(f.settlement))
	}
	return out, nil
}

package leg

import (
	"fmt"

	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/fx"
	"github.com/marcopist/rateslib/schedule"
)

// MtmFloatLeg is a floating leg whose notional resets every period to
// -leg1Notional * fx(pair, period start), with mark-to-market notional
// exchanges on each reset date. It is the second leg of a mark-to-market
// cross-currency swap.
//
// SetPeriods must be called (with current FX state) before pricing, and again
// whenever the FX forwards' AD order or market data change. The freeze flag
// suppresses re-resolution while a nested solve is repricing the leg.
type MtmFloatLeg struct {
	FloatLeg
	pair         string
	leg1Notional float64
	frozen       bool
	resolved     bool
}

// NewMtmFloatLeg builds an MTM floating leg. pair quotes the counter leg's
// currency in this leg's currency, so the reset notional -leg1Notional *
// fx(pair) is denominated in this leg's currency.
func NewMtmFloatLeg(s *schedule.Schedule, currency string, cfg FloatConfig, pair string, leg1Notional float64) *MtmFloatLeg {
	l := &MtmFloatLeg{
		pair:         pair,
		leg1Notional: leg1Notional,
	}
	// Exchanges are owned by SetPeriods; the embedded leg holds no static ones.
	l.FloatLeg = *NewFloatLeg(s, 0, currency, false, false, cfg)
	return l
}

// Pair returns the FX pair driving the notional resets.
func (l *MtmFloatLeg) Pair() string { return l.pair }

// Leg1Notional returns the counter leg's notional.
func (l *MtmFloatLeg) Leg1Notional() float64 { return l.leg1Notional }

// SetLeg1Notional updates the counter leg's notional; resets must be
// re-resolved with SetPeriods afterwards.
func (l *MtmFloatLeg) SetLeg1Notional(n float64) {
	l.leg1Notional = n
	l.resolved = false
}

// Frozen reports whether reset resolution is currently suppressed.
func (l *MtmFloatLeg) Frozen() bool { return l.frozen }

// Freeze suppresses SetPeriods until Unfreeze, preserving the current resets
// while a nested solve reprices the leg repeatedly.
func (l *MtmFloatLeg) Freeze() { l.frozen = true }

// Unfreeze re-enables SetPeriods.
func (l *MtmFloatLeg) Unfreeze() { l.frozen = false }

// SetPeriods resolves every period notional from forward FX rates at the
// period start and rebuilds the notional exchange cashflows:
//
//	start_0:  +n_0
//	start_i:  n_i - n_(i-1)   (mark-to-market settlement)
//	final:    -n_last
//
// The resolved notionals carry FX (and curve) sensitivities at the forwards'
// current AD order. A frozen leg returns immediately.
func (l *MtmFloatLeg) SetPeriods(f *fx.Forwards) error {
	if l.frozen {
		return nil
	}
	if f == nil {
		return fmt.Errorf("MtmFloatLeg.SetPeriods: nil fx forwards")
	}
	notionals := make([]dual.Number, len(l.Periods))
	for i := range l.Periods {
		r, err := f.Rate(l.pair, l.Periods[i].Start)
		if err != nil {
			return fmt.Errorf("MtmFloatLeg.SetPeriods: %w", err)
		}
		notionals[i] = r.Scale(-l.leg1Notional)
		l.Periods[i].Notional = notionals[i]
	}
	l.Exchanges = l.Exchanges[:0]
	l.Exchanges = append(l.Exchanges, ExchangePeriod{
		Payment: l.Periods[0].Start,
		Amount:  notionals[0],
	})
	for i := 1; i < len(notionals); i++ {
		l.Exchanges = append(l.Exchanges, ExchangePeriod{
			Payment: l.Periods[i].Start,
			Amount:  notionals[i].Sub(notionals[i-1]),
		})
	}
	l.Exchanges = append(l.Exchanges, ExchangePeriod{
		Payment: l.Periods[len(l.Periods)-1].Payment,
		Amount:  notionals[len(notionals)-1].Neg(),
	})
	l.resolved = true
	return nil
}

// Resolved reports whether period notionals reflect current FX state.
func (l *MtmFloatLeg) Resolved() bool { return l.resolved }

// SetNotional is rejected: MTM notionals derive from the counter leg and FX.
func (l *MtmFloatLeg) SetNotional(n float64) {
	panic("MtmFloatLeg: notional is derived from leg1 notional and fx resets")
}

// NPV requires the resets to have been resolved.
func (l *MtmFloatLeg) NPV(fore, disc DiscountCurve, fxScale dual.Number) (dual.Number, error) {
	if !l.resolved {
		return dual.Number{}, fmt.Errorf("MtmFloatLeg.NPV: periods not resolved; call SetPeriods first")
	}
	return l.FloatLeg.NPV(fore, disc, fxScale)
}

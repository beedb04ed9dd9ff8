package instruments

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/fx"
	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/schedule"
)

// FXFixingPolicy controls behaviour when a cross-currency swap needs an FX
// fixing that was neither supplied nor derivable from FX forwards.
type FXFixingPolicy int

const (
	FXPolicyRaise FXFixingPolicy = iota // fail the pricing call
	FXPolicyWarn                        // log and assume a fixing of 1.0
	FXPolicyAllow                       // assume a fixing of 1.0 silently
)

// XCSSpec holds the terms of a float-for-float cross-currency swap with
// notional exchanges. Leg1's notional is in Leg1Currency; leg2's derives
// from the FX fixing of Leg1Currency quoted in Leg2Currency.
type XCSSpec struct {
	Effective   time.Time
	Termination time.Time
	FreqMonths  int
	Convention  string
	Calendar    calendar.ID
	PaymentLag  int

	Leg1Currency string
	Leg2Currency string
	Leg1Notional float64
	// FXFixing pins leg2's notional to -Leg1Notional * fixing; nil resolves
	// lazily, first from the FXFixings table and then from FX forwards.
	FXFixing  *float64
	FXFixings *fx.Fixed
	Policy    FXFixingPolicy

	// SpreadLeg selects which leg Rate solves the mid-market spread on
	// (1 or 2; zero defaults to 1).
	SpreadLeg int

	Leg1Float leg.FloatConfig
	Leg2Float leg.FloatConfig
}

func (s XCSSpec) pair() string {
	return strings.ToLower(s.Leg1Currency) + strings.ToLower(s.Leg2Currency)
}

func (s XCSSpec) spreadLeg() int {
	if s.SpreadLeg == 0 {
		return 1
	}
	return s.SpreadLeg
}

func (s XCSSpec) schedule() (*schedule.Schedule, error) {
	return schedule.Generate(schedule.Spec{
		Effective:   s.Effective,
		Termination: s.Termination,
		FreqMonths:  s.FreqMonths,
		Calendar:    s.Calendar,
		PaymentLag:  s.PaymentLag,
		Convention:  s.Convention,
	})
}

// NonMtmXCS is a cross-currency swap whose leg2 notional is fixed once, at
// the FX fixing, for the life of the trade.
type NonMtmXCS struct {
	spec       XCSSpec
	leg1       *leg.FloatLeg
	leg2       *leg.FloatLeg
	fxResolved bool
	log        *slog.Logger
}

// NewNonMtmXCS builds both legs over a shared schedule. logger may be nil.
func NewNonMtmXCS(spec XCSSpec, logger *slog.Logger) (*NonMtmXCS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := spec.schedule()
	if err != nil {
		return nil, fmt.Errorf("instruments.NewNonMtmXCS: %w", err)
	}
	x := &NonMtmXCS{
		spec: spec,
		leg1: leg.NewFloatLeg(sched, spec.Leg1Notional, spec.Leg1Currency, true, true, spec.Leg1Float),
		leg2: leg.NewFloatLeg(sched, 0, spec.Leg2Currency, true, true, spec.Leg2Float),
		log:  logger,
	}
	if spec.FXFixing != nil {
		x.leg2.SetNotional(-spec.Leg1Notional * *spec.FXFixing)
		x.fxResolved = true
	}
	return x, nil
}

// Spec returns the swap's terms.
func (x *NonMtmXCS) Spec() XCSSpec { return x.spec }

// Leg1 returns the domestic leg.
func (x *NonMtmXCS) Leg1() *leg.FloatLeg { return x.leg1 }

// Leg2 returns the foreign leg.
func (x *NonMtmXCS) Leg2() *leg.FloatLeg { return x.leg2 }

// FXResolved reports whether leg2's notional has been fixed.
func (x *NonMtmXCS) FXResolved() bool { return x.fxResolved }

// resolveFXFixing fixes leg2's notional on first use. The fixing, once set,
// is part of the trade's economics and never re-derived.
func (x *NonMtmXCS) resolveFXFixing(p Pricing) error {
	if x.fxResolved {
		return nil
	}
	fixing := 1.0
	if r, ok := x.fixedFixing(); ok {
		fixing = r
	} else if f := p.forwards(); f != nil {
		r, err := f.Rate(x.spec.pair(), x.spec.Effective)
		if err != nil {
			return fmt.Errorf("instruments: resolving fx fixing: %w", err)
		}
		fixing = r.Real()
	} else {
		switch x.spec.Policy {
		case FXPolicyAllow:
		case FXPolicyWarn:
			x.log.Warn("no fx forwards for xcs fixing, assuming 1.0", "pair", x.spec.pair())
		default:
			return fmt.Errorf("instruments: xcs fx fixing for %s unavailable and no fx forwards supplied", x.spec.pair())
		}
	}
	x.leg2.SetNotional(-x.spec.Leg1Notional * fixing)
	x.fxResolved = true
	return nil
}

// fixedFixing consults the pre-agreed fixing table for the effective date.
func (x *NonMtmXCS) fixedFixing() (float64, bool) {
	if x.spec.FXFixings == nil {
		return 0, false
	}
	return x.spec.FXFixings.Rate(x.spec.pair(), x.spec.Effective)
}

func (x *NonMtmXCS) base(p Pricing) string {
	if p.Base != "" {
		return p.Base
	}
	return x.spec.Leg1Currency
}

// NPV reports the swap's present value in p.Base (default leg1's currency).
func (x *NonMtmXCS) NPV(p Pricing) (dual.Number, error) {
	if err := x.resolveFXFixing(p); err != nil {
		return dual.Number{}, err
	}
	return xcsNPV(p, x.base(p), x.leg1, x.leg2)
}

// Rate returns the mid-market spread in bp on the spec's spread leg.
func (x *NonMtmXCS) Rate(p Pricing) (dual.Number, error) {
	return x.RateLeg(p, x.spec.spreadLeg())
}

// RateLeg returns the mid-market spread in bp on the given leg (1 or 2): the
// spread at which the swap's NPV, in that leg's currency, is zero.
func (x *NonMtmXCS) RateLeg(p Pricing, legNo int) (dual.Number, error) {
	if err := x.resolveFXFixing(p); err != nil {
		return dual.Number{}, err
	}
	return xcsRateLeg(p, legNo, x.leg1, x.leg2)
}

// MtmXCS is a mark-to-market cross-currency swap: leg2's notional resets each
// period to the forward FX fixing, with reset settlement cashflows.
type MtmXCS struct {
	spec XCSSpec
	leg1 *leg.FloatLeg
	leg2 *leg.MtmFloatLeg
}

// NewMtmXCS builds the domestic leg and the resetting foreign leg. The
// resetting leg's spread must accrue simply: compounded spreads would need
// second-order repricing of notionals that carry first-order FX sensitivity.
func NewMtmXCS(spec XCSSpec) (*MtmXCS, error) {
	switch spec.Leg2Float.SpreadCompound {
	case "", leg.CompoundNoneSimple:
	default:
		return nil, fmt.Errorf("instruments.NewMtmXCS: mtm leg requires simple spread accrual, got %q",
			spec.Leg2Float.SpreadCompound)
	}
	sched1, err := spec.schedule()
	if err != nil {
		return nil, fmt.Errorf("instruments.NewMtmXCS: %w", err)
	}
	sched2, err := spec.schedule()
	if err != nil {
		return nil, fmt.Errorf("instruments.NewMtmXCS: %w", err)
	}
	return &MtmXCS{
		spec: spec,
		leg1: leg.NewFloatLeg(sched1, spec.Leg1Notional, spec.Leg1Currency, true, true, spec.Leg1Float),
		leg2: leg.NewMtmFloatLeg(sched2, spec.Leg2Currency, spec.Leg2Float, spec.pair(), spec.Leg1Notional),
	}, nil
}

// Spec returns the swap's terms.
func (x *MtmXCS) Spec() XCSSpec { return x.spec }

// Leg1 returns the domestic leg.
func (x *MtmXCS) Leg1() *leg.FloatLeg { return x.leg1 }

// Leg2 returns the resetting foreign leg.
func (x *MtmXCS) Leg2() *leg.MtmFloatLeg { return x.leg2 }

func (x *MtmXCS) base(p Pricing) string {
	if p.Base != "" {
		return p.Base
	}
	return x.spec.Leg1Currency
}

// NPV resolves the notional resets from current FX forwards (unless the leg
// is frozen mid-solve) and reports the present value in p.Base.
func (x *MtmXCS) NPV(p Pricing) (dual.Number, error) {
	f := p.forwards()
	if f == nil {
		return dual.Number{}, fmt.Errorf("MtmXCS.NPV: fx forwards required")
	}
	if err := x.leg2.SetPeriods(f); err != nil {
		return dual.Number{}, fmt.Errorf("MtmXCS.NPV: %w", err)
	}
	return xcsNPV(p, x.base(p), x.leg1, x.leg2)
}

// Rate returns the mid-market spread in bp on the spec's spread leg.
func (x *MtmXCS) Rate(p Pricing) (dual.Number, error) {
	return x.RateLeg(p, x.spec.spreadLeg())
}

// RateLeg returns the mid-market spread in bp on the given leg. The resets
// are resolved once and frozen for the duration of the solve so nested
// repricing sees consistent notionals.
func (x *MtmXCS) RateLeg(p Pricing, legNo int) (dual.Number, error) {
	f := p.forwards()
	if f == nil {
		return dual.Number{}, fmt.Errorf("MtmXCS.RateLeg: fx forwards required")
	}
	if err := x.leg2.SetPeriods(f); err != nil {
		return dual.Number{}, fmt.Errorf("MtmXCS.RateLeg: %w", err)
	}
	x.leg2.Freeze()
	defer x.leg2.Unfreeze()
	return xcsRateLeg(p, legNo, x.leg1, x.leg2)
}

// xcsNPV sums both legs' NPVs converted into base.
func xcsNPV(p Pricing, base string, leg1, leg2 leg.Leg) (dual.Number, error) {
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	fx1, err := p.fxScale(leg1.Currency(), base, cs.disc1.Anchor())
	if err != nil {
		return dual.Number{}, err
	}
	fx2, err := p.fxScale(leg2.Currency(), base, cs.disc2.Anchor())
	if err != nil {
		return dual.Number{}, err
	}
	npv1, err := leg1.NPV(cs.fore1, cs.disc1, fx1)
	if err != nil {
		return dual.Number{}, fmt.Errorf("xcs npv leg1: %w", err)
	}
	npv2, err := leg2.NPV(cs.fore2, cs.disc2, fx2)
	if err != nil {
		return dual.Number{}, fmt.Errorf("xcs npv leg2: %w", err)
	}
	return npv1.Add(npv2), nil
}

// xcsRateLeg solves the spread on the chosen leg in that leg's currency.
func xcsRateLeg(p Pricing, legNo int, leg1, leg2 leg.Leg) (dual.Number, error) {
	var target leg.Leg
	switch legNo {
	case 1:
		target = leg1
	case 2:
		target = leg2
	default:
		return dual.Number{}, fmt.Errorf("xcs rate: leg must be 1 or 2, got %d", legNo)
	}
	npv, err := xcsNPV(p, target.Currency(), leg1, leg2)
	if err != nil {
		return dual.Number{}, err
	}
	cs, err := p.resolve()
	if err != nil {
		return dual.Number{}, err
	}
	fore, disc := cs.fore1, cs.disc1
	if legNo == 2 {
		fore, disc = cs.fore2, cs.disc2
	}
	adj, err := target.SolveSpread(npv.Neg(), fore, disc, dual.Const(1))
	if err != nil {
		return dual.Number{}, fmt.Errorf("xcs rate: %w", err)
	}
	fl, ok := target.(interface{ Spread() float64 })
	if !ok {
		return adj, nil
	}
	return adj.AddFloat(fl.Spread()), nil
}

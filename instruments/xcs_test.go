package instruments

import (
	"math"
	"testing"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/curve"
	"github.com/marcopist/rateslib/fx"
	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/utils"
)

func rfrConfig() leg.FloatConfig {
	return leg.FloatConfig{
		FixingMethod:   leg.MethodRFRPaymentDelay,
		SpreadCompound: leg.CompoundNoneSimple,
	}
}

func testXCSSpec(leg1Ccy, leg2Ccy string) XCSSpec {
	return XCSSpec{
		Effective:    utils.Date(2023, time.January, 10),
		Termination:  utils.Date(2024, time.January, 10),
		FreqMonths:   3,
		Convention:   "ACT/360",
		Calendar:     calendar.ALL,
		Leg1Currency: leg1Ccy,
		Leg2Currency: leg2Ccy,
		Leg1Notional: 1e6,
		Leg1Float:    rfrConfig(),
		Leg2Float:    rfrConfig(),
	}
}

func xcsPricing(t *testing.T, eurRate, usdRate float64) Pricing {
	t.Helper()
	eur := flatCurve(t, "estr", eurRate)
	usd := flatCurve(t, "sofr", usdRate)
	f, err := fx.NewForwards(
		map[string]float64{"eurusd": 1.10},
		time.Time{},
		map[string]*curve.Curve{"eur": eur, "usd": usd},
	)
	if err != nil {
		t.Fatalf("fx.NewForwards: %v", err)
	}
	return Pricing{
		Curves: []CurveRef{ByCurve(eur), ByCurve(eur), ByCurve(usd), ByCurve(usd)},
		FX:     f,
	}
}

func TestNonMtmXCSLazyFXFixing(t *testing.T) {
	t.Parallel()

	p := xcsPricing(t, 0.03, 0.03)
	x, err := NewNonMtmXCS(testXCSSpec("eur", "usd"), nil)
	if err != nil {
		t.Fatalf("NewNonMtmXCS: %v", err)
	}
	if x.FXResolved() {
		t.Fatalf("fixing should be unresolved before first pricing")
	}

	npv, err := x.NPV(p)
	if err != nil {
		t.Fatalf("NPV: %v", err)
	}
	if !x.FXResolved() {
		t.Fatalf("fixing should resolve on first pricing")
	}
	// identical rates pin the effective-date forward at spot
	approx(t, "leg2 notional", x.Leg2().Notional(), -1.1e6, 1e-6)
	// both legs forecast and discount on their own curves: par on both sides
	approx(t, "npv", npv.Real(), 0, 1e-6)
}

func TestNonMtmXCSExplicitFXFixing(t *testing.T) {
	t.Parallel()

	spec := testXCSSpec("eur", "usd")
	fixing := 1.25
	spec.FXFixing = &fixing
	x, err := NewNonMtmXCS(spec, nil)
	if err != nil {
		t.Fatalf("NewNonMtmXCS: %v", err)
	}
	if !x.FXResolved() {
		t.Fatalf("explicit fixing should resolve at construction")
	}
	approx(t, "leg2 notional", x.Leg2().Notional(), -1.25e6, 1e-9)
}

func TestNonMtmXCSFixingTable(t *testing.T) {
	t.Parallel()

	spec := testXCSSpec("eur", "usd")
	// the table wins over the forwards-implied rate
	spec.FXFixings = fx.NewFixed()
	spec.FXFixings.Set("usdeur", spec.Effective, 1/1.20) // inverse quotation
	x, err := NewNonMtmXCS(spec, nil)
	if err != nil {
		t.Fatalf("NewNonMtmXCS: %v", err)
	}

	p := xcsPricing(t, 0.03, 0.03)
	if _, err := x.NPV(p); err != nil {
		t.Fatalf("NPV: %v", err)
	}
	approx(t, "leg2 notional", x.Leg2().Notional(), -1.2e6, 1e-6)
}

func TestNonMtmXCSFixingPolicy(t *testing.T) {
	t.Parallel()

	// single-currency swap priced with no fx forwards at all
	c := flatCurve(t, "sofr", 0.03)
	p := Pricing{Curves: []CurveRef{ByCurve(c)}}

	raise, err := NewNonMtmXCS(testXCSSpec("usd", "usd"), nil)
	if err != nil {
		t.Fatalf("NewNonMtmXCS: %v", err)
	}
	if _, err := raise.NPV(p); err == nil {
		t.Fatalf("default policy should fail without a fixing source")
	}
	if raise.FXResolved() {
		t.Fatalf("failed resolution must not fix the notional")
	}

	spec := testXCSSpec("usd", "usd")
	spec.Policy = FXPolicyAllow
	allow, err := NewNonMtmXCS(spec, nil)
	if err != nil {
		t.Fatalf("NewNonMtmXCS: %v", err)
	}
	npv, err := allow.NPV(p)
	if err != nil {
		t.Fatalf("NPV: %v", err)
	}
	approx(t, "leg2 notional", allow.Leg2().Notional(), -1e6, 1e-9)
	// equal and opposite legs on one curve cancel exactly
	approx(t, "npv", npv.Real(), 0, 1e-9)
}

func TestNonMtmXCSMidSpread(t *testing.T) {
	t.Parallel()

	p := xcsPricing(t, 0.02, 0.05)
	x, err := NewNonMtmXCS(testXCSSpec("eur", "usd"), nil)
	if err != nil {
		t.Fatalf("NewNonMtmXCS: %v", err)
	}
	// each leg is par on its own curve, so the mid-market basis is zero
	for _, legNo := range []int{1, 2} {
		sp, err := x.RateLeg(p, legNo)
		if err != nil {
			t.Fatalf("RateLeg(%d): %v", legNo, err)
		}
		if math.Abs(sp.Real()) > 1e-6 {
			t.Fatalf("leg %d mid spread = %g bp, want ~0", legNo, sp.Real())
		}
	}
	if _, err := x.RateLeg(p, 3); err == nil {
		t.Fatalf("want error for leg 3")
	}
}

func TestMtmXCSRejectsCompoundedSpread(t *testing.T) {
	t.Parallel()

	spec := testXCSSpec("eur", "usd")
	spec.Leg2Float.SpreadCompound = leg.CompoundISDA
	if _, err := NewMtmXCS(spec); err == nil {
		t.Fatalf("want error for compounded spread on the resetting leg")
	}
}

func TestMtmXCSNPVAndSpread(t *testing.T) {
	t.Parallel()

	p := xcsPricing(t, 0.03, 0.03)
	x, err := NewMtmXCS(testXCSSpec("eur", "usd"))
	if err != nil {
		t.Fatalf("NewMtmXCS: %v", err)
	}

	npv, err := x.NPV(p)
	if err != nil {
		t.Fatalf("NPV: %v", err)
	}
	// flat identical curves: every reset is at spot, both legs par
	approx(t, "npv", npv.Real(), 0, 1e-6)
	approx(t, "reset notional", x.Leg2().Periods[0].Notional.Real(), -1.1e6, 1e-6)

	sp, err := x.RateLeg(p, 2)
	if err != nil {
		t.Fatalf("RateLeg: %v", err)
	}
	if math.Abs(sp.Real()) > 1e-6 {
		t.Fatalf("mtm mid spread = %g bp, want ~0", sp.Real())
	}
	if x.Leg2().Frozen() {
		t.Fatalf("resets should unfreeze after the solve")
	}
}

func TestMtmXCSRequiresForwards(t *testing.T) {
	t.Parallel()

	c := flatCurve(t, "sofr", 0.03)
	p := Pricing{Curves: []CurveRef{ByCurve(c)}}
	x, err := NewMtmXCS(testXCSSpec("eur", "usd"))
	if err != nil {
		t.Fatalf("NewMtmXCS: %v", err)
	}
	if _, err := x.NPV(p); err == nil {
		t.Fatalf("want error without fx forwards")
	}
}

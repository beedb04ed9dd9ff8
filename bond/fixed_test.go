package bond

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/curve"
	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/utils"
)

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.12g, want %.12g (tol %g)", name, got, want, tol)
	}
}

// the UK 8% Treasury 2015: the DMO's worked example for street-convention
// yield and ex-dividend accrual.
func gilt(t *testing.T) *FixedRateBond {
	t.Helper()
	b, err := NewFixedRateBond(FixedBondSpec{
		Effective:   utils.Date(1998, time.December, 7),
		Termination: utils.Date(2015, time.December, 7),
		FreqMonths:  6,
		Convention:  "ActActICMA",
		Calendar:    calendar.LDN,
		Currency:    "gbp",
		FixedRate:   8.0,
		ExDivDays:   7,
		SettleLag:   1,
	})
	if err != nil {
		t.Fatalf("NewFixedRateBond: %v", err)
	}
	return b
}

func TestGiltExDiv(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	// ex-div boundary is 7 London business days before 1999-06-07, crossing
	// the May 31 holiday: 1999-05-26
	if b.ExDiv(utils.Date(1999, time.May, 25)) {
		t.Fatalf("May 25 should be cum-dividend")
	}
	if !b.ExDiv(utils.Date(1999, time.May, 26)) {
		t.Fatalf("May 26 should be ex-dividend")
	}
	if !b.ExDiv(utils.Date(1999, time.May, 27)) {
		t.Fatalf("May 27 should be ex-dividend")
	}
}

func TestGiltAccrued(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	// cum-dividend: positive linear accrual
	approx(t, "accrued cum", b.Accrued(utils.Date(1999, time.May, 20)),
		164.0/182*0.5*8, 1e-12)
	// ex-dividend: negative (rebate of the remaining stub)
	approx(t, "accrued ex", b.Accrued(utils.Date(1999, time.May, 27)),
		(171.0/182-1)*0.5*8, 1e-12)
}

func TestGiltPriceFromYTM(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	settlement := utils.Date(1999, time.May, 27)
	dirty := b.Price(4.445, settlement, true)
	approx(t, "dirty price", dirty, 141.0701315, 1e-6)
	clean := b.Price(4.445, settlement, false)
	approx(t, "clean price", clean, dirty-b.Accrued(settlement), 1e-12)
}

func TestGiltYTMRoundTrip(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	settlement := utils.Date(1999, time.May, 27)
	for _, y := range []float64{-5.0, 0.0, 4.445, 50.0} {
		price := b.Price(y, settlement, true)
		got, err := b.YTM(dual.Const(price), settlement, true)
		if err != nil {
			t.Fatalf("YTM(%g): %v", y, err)
		}
		approx(t, "ytm round trip", got.Real(), y, 1e-8)
	}
}

func TestGiltDurationAndConvexity(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	settlement := utils.Date(1999, time.May, 27)
	risk, err := b.Duration(4.445, settlement, MetricRisk)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	approx(t, "risk", risk, 14.6598, 1e-3)

	// a 1bp yield move loses the risk figure, up to convexity
	diff := (b.Price(4.445, settlement, true) - b.Price(4.455, settlement, true)) * 100
	approx(t, "1bp price move", diff, risk, 2e-2)

	mod, err := b.Duration(4.445, settlement, MetricModified)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	approx(t, "modified", mod, 10.3918, 1e-3)

	// convexity agrees with a finite difference of price
	h := 1e-4
	fd := (b.Price(4.445+h, settlement, true) - 2*b.Price(4.445, settlement, true) +
		b.Price(4.445-h, settlement, true)) / (h * h)
	approx(t, "convexity", b.Convexity(4.445, settlement), fd, 1e-4)
}

func TestYTMImplicitFunctionTheorem(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	settlement := utils.Date(1999, time.May, 27)
	price := 141.0701315

	y, err := b.YTM(dual.New2(price, "p"), settlement, true)
	if err != nil {
		t.Fatalf("YTM: %v", err)
	}

	solve := func(p float64) float64 {
		out, err := b.YTM(dual.Const(p), settlement, true)
		if err != nil {
			t.Fatalf("YTM(%g): %v", p, err)
		}
		return out.Real()
	}
	h1 := 1e-4
	fd1 := (solve(price+h1) - solve(price-h1)) / (2 * h1)
	// the second difference divides the solver tolerance by h^2, so it needs
	// a wider step than the first to keep root-finding noise below the signal
	h2 := 1e-2
	fd2 := (solve(price+h2) - 2*solve(price) + solve(price-h2)) / (h2 * h2)

	if rel := math.Abs(y.Gradient("p")-fd1) / math.Abs(fd1); rel > 1e-6 {
		t.Fatalf("dy/dP = %.12g vs fd %.12g (rel %g)", y.Gradient("p"), fd1, rel)
	}
	if rel := math.Abs(y.Gradient2("p", "p")-fd2) / math.Abs(fd2); rel > 1e-3 {
		t.Fatalf("d2y/dP2 = %.12g vs fd %.12g (rel %g)", y.Gradient2("p", "p"), fd2, rel)
	}
}

func TestYTMRootNotBracketed(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	// above the price at the lower yield bound (~7e11), so no root exists
	_, err := b.YTM(dual.Const(1e13), utils.Date(1999, time.May, 27), true)
	if !errors.Is(err, ErrRootNotBracketed) {
		t.Fatalf("want ErrRootNotBracketed, got %v", err)
	}
}

func TestRateFromCurvePropagatesToYTM(t *testing.T) {
	t.Parallel()
	b := gilt(t)

	anchor := utils.Date(1999, time.May, 26)
	nodes := map[time.Time]float64{anchor: 1.0}
	for years := 1; years <= 17; years++ {
		d := utils.Date(1999+years, time.May, 26)
		nodes[d] = math.Exp(-0.05 * utils.Days(anchor, d) / 365)
	}
	c, err := curve.New("gbp", nodes)
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}

	dirty, err := b.Rate(c, MetricDirtyPrice)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if dirty.Real() < 100 || dirty.Real() > 200 {
		t.Fatalf("dirty price %g outside sanity range", dirty.Real())
	}
	clean, err := b.Rate(c, MetricCleanPrice)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	// settlement is one business day after the anchor: 1999-05-27, ex-div
	approx(t, "clean", clean.Real(), dirty.Real()-b.Accrued(utils.Date(1999, time.May, 27)), 1e-12)

	// curve-node sensitivities survive the yield solve
	prev := c.SetADOrder(dual.Order1)
	defer c.SetADOrder(prev)
	ytm, err := b.Rate(c, MetricYTM)
	if err != nil {
		t.Fatalf("Rate ytm: %v", err)
	}
	if len(ytm.Vars()) == 0 {
		t.Fatalf("ytm carries no curve sensitivities")
	}
	// raising a pure-discounting node lifts the price and lowers the yield
	// (the settlement-segment nodes also scale the price denominator, so
	// only nodes beyond the first segment have an unambiguous sign)
	if g := ytm.Gradient("gbp5"); g >= 0 {
		t.Fatalf("d ytm / d gbp5 = %g, want negative", g)
	}
}

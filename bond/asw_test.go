package bond

import (
	"testing"
	"time"

	"github.com/marcopist/rateslib/schedule"
	"github.com/marcopist/rateslib/utils"
)

func TestAssetSwapSpreadAtFairPriceIsZero(t *testing.T) {
	t.Parallel()
	b := gilt(t)
	c := flatCurve(t, "gbp", utils.Date(1999, time.May, 26), 0.05)

	dirty, err := b.Rate(c, MetricDirtyPrice)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	asw, err := b.AssetSwapSpread(c, dirty.Real(), ASWFloatSpec{FreqMonths: 6, Convention: "ACT/360"})
	if err != nil {
		t.Fatalf("AssetSwapSpread: %v", err)
	}
	approx(t, "asw at fair price", asw.Real(), 0, 1e-9)
}

func TestAssetSwapSpreadCheapBond(t *testing.T) {
	t.Parallel()
	b := gilt(t)
	c := flatCurve(t, "gbp", utils.Date(1999, time.May, 26), 0.05)

	dirty, err := b.Rate(c, MetricDirtyPrice)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	// one point cheap: the spread is 100bp over the float annuity
	asw, err := b.AssetSwapSpread(c, dirty.Real()-1, ASWFloatSpec{FreqMonths: 6, Convention: "ACT/360"})
	if err != nil {
		t.Fatalf("AssetSwapSpread: %v", err)
	}

	settlement := utils.Date(1999, time.May, 27)
	sched, err := schedule.Generate(schedule.Spec{
		Effective:   settlement,
		Termination: b.Spec().Termination,
		FreqMonths:  6,
		Calendar:    b.Spec().Calendar,
		Convention:  "ACT/360",
	})
	if err != nil {
		t.Fatalf("schedule.Generate: %v", err)
	}
	annuity := 0.0
	for _, p := range sched.Periods {
		annuity += p.DCF * c.DF(p.Payment).Real()
	}
	annuity /= c.DF(settlement).Real()
	approx(t, "asw cheap bond", asw.Real(), 100/annuity, 1e-9)
}

package bond

import (
	"fmt"

	"github.com/marcopist/rateslib/dual"
	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/schedule"
)

// ASWFloatSpec describes the floating side of a par-par asset swap package:
// the schedule the spread accrues on, from settlement to the bond's maturity.
type ASWFloatSpec struct {
	// FreqMonths is the float coupon period in months (3 = quarterly).
	FreqMonths int
	Convention string
}

// AssetSwapSpread returns the par-par asset swap spread in bp for the bond
// bought at the given dirty price per 100:
//
//	asw = (pv_rf - dirty) * 100 / annuity
//
// pv_rf is the bond's dirty price implied by the discount curve and annuity
// is the settlement-relative value of the float schedule's accruals. The
// result carries the curve's node sensitivities.
func (b *FixedRateBond) AssetSwapSpread(disc leg.DiscountCurve, dirtyPrice float64, float ASWFloatSpec) (dual.Number, error) {
	pvRF, err := b.Rate(disc, MetricDirtyPrice)
	if err != nil {
		return dual.Number{}, fmt.Errorf("bond.AssetSwapSpread: %w", err)
	}
	settlement := b.settlementFrom(disc)
	sched, err := schedule.Generate(schedule.Spec{
		Effective:   settlement,
		Termination: b.spec.Termination,
		FreqMonths:  float.FreqMonths,
		Calendar:    b.spec.Calendar,
		Convention:  float.Convention,
	})
	if err != nil {
		return dual.Number{}, fmt.Errorf("bond.AssetSwapSpread: float schedule: %w", err)
	}

	annuity := dual.Const(0)
	for _, p := range sched.Periods {
		if p.Payment.Before(settlement) {
			continue
		}
		annuity = annuity.Add(disc.DF(p.Payment).Scale(p.DCF))
	}
	annuity = annuity.Div(disc.DF(settlement))
	if annuity.Real() == 0 {
		return dual.Number{}, fmt.Errorf("bond.AssetSwapSpread: empty float annuity")
	}
	return pvRF.AddFloat(-dirtyPrice).Div(annuity).Scale(100), nil
}

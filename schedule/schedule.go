// Package schedule generates accrual schedules for legs and securities.
//
// Accrual dates are kept unadjusted (bond market convention for coupon
// accrual); payment dates are business-day adjusted and lagged.
package schedule

import (
	"fmt"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/utils"
)

// Spec holds the immutable parameters a schedule is generated from.
type Spec struct {
	Effective   time.Time
	Termination time.Time
	// FreqMonths is the accrual period length in months (1, 2, 3, 4, 6, 12).
	FreqMonths int
	Calendar   calendar.ID
	// PaymentLag is the number of business days payments lag accrual ends.
	PaymentLag int
	Convention string
}

// Period is a single accrual period.
type Period struct {
	Start   time.Time // unadjusted accrual start
	End     time.Time // unadjusted accrual end
	Payment time.Time // adjusted, lagged payment date
	DCF     float64
	Stub    bool
}

// Schedule is an ordered set of accrual periods with the underlying
// accrual-date sequence exposed for bisection lookups.
type Schedule struct {
	Spec    Spec
	Periods []Period
	// aschedule: ascending accrual dates, len = NPeriods + 1.
	adates []time.Time
}

var validFreq = map[int]bool{1: true, 2: true, 3: true, 4: true, 6: true, 12: true}

// Generate rolls accrual dates backward from termination (creating a front
// stub when effective does not align) and computes period day-count fractions.
func Generate(spec Spec) (*Schedule, error) {
	if !spec.Termination.After(spec.Effective) {
		return nil, fmt.Errorf("schedule.Generate: termination %s not after effective %s",
			spec.Termination.Format("2006-01-02"), spec.Effective.Format("2006-01-02"))
	}
	if !validFreq[spec.FreqMonths] {
		return nil, fmt.Errorf("schedule.Generate: unsupported frequency %d months", spec.FreqMonths)
	}

	var dates []time.Time
	cur := spec.Termination
	for cur.After(spec.Effective) {
		dates = append([]time.Time{cur}, dates...)
		cur = utils.AddMonth(cur, -spec.FreqMonths)
	}
	frontStub := !cur.Equal(spec.Effective)
	dates = append([]time.Time{spec.Effective}, dates...)

	s := &Schedule{Spec: spec, adates: dates}
	for i := 0; i < len(dates)-1; i++ {
		stub := frontStub && i == 0
		dcf, err := periodDCF(dates[i], dates[i+1], spec.Convention, spec.FreqMonths, stub)
		if err != nil {
			return nil, fmt.Errorf("schedule.Generate: %w", err)
		}
		pay := calendar.AddBusinessDays(spec.Calendar, calendar.Adjust(spec.Calendar, dates[i+1]), spec.PaymentLag)
		s.Periods = append(s.Periods, Period{
			Start:   dates[i],
			End:     dates[i+1],
			Payment: pay,
			DCF:     dcf,
			Stub:    stub,
		})
	}
	return s, nil
}

// AccrualDates returns the ascending accrual-date sequence (n_periods + 1 dates).
func (s *Schedule) AccrualDates() []time.Time { return s.adates }

// NPeriods returns the number of accrual periods.
func (s *Schedule) NPeriods() int { return len(s.Periods) }

// Frequency returns coupon periods per year.
func (s *Schedule) Frequency() float64 { return 12.0 / float64(s.Spec.FreqMonths) }

// IndexLeft locates the accrual period containing the given date.
func (s *Schedule) IndexLeft(t time.Time) int {
	return utils.IndexLeft(s.adates, t)
}

// periodDCF computes a period's day-count fraction. ActActICMA is
// frequency-relative: 1/f for regular periods and the quasi-period fraction
// for stubs; other conventions defer to utils.YearFraction.
func periodDCF(start, end time.Time, convention string, freqMonths int, stub bool) (float64, error) {
	if convention == "ActActICMA" || convention == "ACTACTICMA" {
		f := 12.0 / float64(freqMonths)
		if !stub {
			return 1.0 / f, nil
		}
		quasiStart := utils.AddMonth(end, -freqMonths)
		return utils.Days(start, end) / utils.Days(quasiStart, end) / f, nil
	}
	return utils.YearFraction(start, end, convention)
}

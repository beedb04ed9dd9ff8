package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/utils"
)

func TestGenerateRegularSemiAnnual(t *testing.T) {
	t.Parallel()

	s, err := Generate(Spec{
		Effective:   utils.Date(1998, time.December, 7),
		Termination: utils.Date(2015, time.December, 7),
		FreqMonths:  6,
		Calendar:    calendar.LDN,
		Convention:  "ActActICMA",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if s.NPeriods() != 34 {
		t.Fatalf("NPeriods = %d, want 34", s.NPeriods())
	}
	for i, p := range s.Periods {
		if p.Stub {
			t.Fatalf("period %d unexpectedly a stub", i)
		}
		if math.Abs(p.DCF-0.5) > 1e-15 {
			t.Fatalf("period %d dcf = %g, want 0.5", i, p.DCF)
		}
	}
	if got := s.Periods[0].Start; !got.Equal(utils.Date(1998, time.December, 7)) {
		t.Fatalf("first start = %s", got.Format("2006-01-02"))
	}
	if got := s.Periods[33].End; !got.Equal(utils.Date(2015, time.December, 7)) {
		t.Fatalf("last end = %s", got.Format("2006-01-02"))
	}
}

func TestGenerateFrontStub(t *testing.T) {
	t.Parallel()

	s, err := Generate(Spec{
		Effective:   utils.Date(2023, time.February, 15),
		Termination: utils.Date(2024, time.January, 10),
		FreqMonths:  3,
		Calendar:    calendar.ALL,
		Convention:  "ActActICMA",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if s.NPeriods() != 4 {
		t.Fatalf("NPeriods = %d, want 4", s.NPeriods())
	}
	if !s.Periods[0].Stub {
		t.Fatalf("first period should be a stub")
	}
	// stub dcf: days(feb15, apr10) / days(jan10, apr10) / 4
	want := 54.0 / 90.0 / 4.0
	if math.Abs(s.Periods[0].DCF-want) > 1e-15 {
		t.Fatalf("stub dcf = %g, want %g", s.Periods[0].DCF, want)
	}
	for i := 1; i < 4; i++ {
		if s.Periods[i].Stub {
			t.Fatalf("period %d unexpectedly a stub", i)
		}
		if math.Abs(s.Periods[i].DCF-0.25) > 1e-15 {
			t.Fatalf("period %d dcf = %g, want 0.25", i, s.Periods[i].DCF)
		}
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := Generate(Spec{
		Effective:   utils.Date(2024, time.January, 1),
		Termination: utils.Date(2023, time.January, 1),
		FreqMonths:  6,
		Calendar:    calendar.ALL,
		Convention:  "ACT/360",
	})
	if err == nil {
		t.Fatalf("want error for termination before effective")
	}

	_, err = Generate(Spec{
		Effective:   utils.Date(2023, time.January, 1),
		Termination: utils.Date(2024, time.January, 1),
		FreqMonths:  5,
		Calendar:    calendar.ALL,
		Convention:  "ACT/360",
	})
	if err == nil {
		t.Fatalf("want error for invalid frequency")
	}
}

func TestIndexLeftLocatesPeriod(t *testing.T) {
	t.Parallel()

	s, err := Generate(Spec{
		Effective:   utils.Date(1998, time.December, 7),
		Termination: utils.Date(2015, time.December, 7),
		FreqMonths:  6,
		Calendar:    calendar.LDN,
		Convention:  "ActActICMA",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := s.IndexLeft(utils.Date(1999, time.May, 27)); got != 0 {
		t.Fatalf("IndexLeft = %d, want 0", got)
	}
	if got := s.IndexLeft(utils.Date(1999, time.June, 7)); got != 1 {
		t.Fatalf("IndexLeft = %d, want 1", got)
	}
}

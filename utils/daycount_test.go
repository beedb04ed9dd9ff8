package utils

import (
	"errors"
	"math"
	"testing"
	"time"
)

func approx(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %.12f, want %.12f (tol %g)", got, want, tol)
	}
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start := Date(2023, time.January, 10)
	end := Date(2023, time.July, 10)

	got, err := YearFraction(start, end, "ACT/360")
	if err != nil {
		t.Fatalf("ACT/360: %v", err)
	}
	approx(t, got, 181.0/360, 1e-15)

	got, err = YearFraction(start, end, "ACT/365F")
	if err != nil {
		t.Fatalf("ACT/365F: %v", err)
	}
	approx(t, got, 181.0/365, 1e-15)

	got, err = YearFraction(start, end, "30E/360")
	if err != nil {
		t.Fatalf("30E/360: %v", err)
	}
	approx(t, got, 0.5, 1e-15)
}

func TestYearFractionActActSplitsAtYearEnd(t *testing.T) {
	t.Parallel()

	// 2023-07-01 to 2024-07-01: 184 days in 2023 (365d year), 182 days in
	// 2024 (366d year).
	got, err := YearFraction(Date(2023, time.July, 1), Date(2024, time.July, 1), "ACT/ACT")
	if err != nil {
		t.Fatalf("ACT/ACT: %v", err)
	}
	approx(t, got, 184.0/365+182.0/366, 1e-15)
}

func TestYearFractionInvalidConvention(t *testing.T) {
	t.Parallel()

	_, err := YearFraction(Date(2023, time.January, 1), Date(2023, time.July, 1), "BUS/252")
	if !errors.Is(err, ErrInvalidConvention) {
		t.Fatalf("want ErrInvalidConvention, got %v", err)
	}
}

func TestIndexLeft(t *testing.T) {
	t.Parallel()

	dates := []time.Time{
		Date(2023, time.January, 1),
		Date(2023, time.July, 1),
		Date(2024, time.January, 1),
	}
	cases := []struct {
		target time.Time
		want   int
	}{
		{Date(2023, time.January, 1), 0},  // on first node
		{Date(2023, time.March, 1), 0},    // inside first interval
		{Date(2023, time.July, 1), 1},     // on interior node
		{Date(2023, time.October, 1), 1},  // inside second interval
		{Date(2024, time.January, 1), 1},  // on last node clamps left
		{Date(2025, time.January, 1), 1},  // beyond clamps left
		{Date(2022, time.January, 1), 0},  // before clamps to 0
	}
	for _, c := range cases {
		if got := IndexLeft(dates, c.target); got != c.want {
			t.Fatalf("IndexLeft(%s) = %d, want %d", c.target.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestAddMonthEndOfMonth(t *testing.T) {
	t.Parallel()

	got := AddMonth(Date(2023, time.January, 31), 1)
	if !got.Equal(Date(2023, time.February, 28)) {
		t.Fatalf("AddMonth = %s, want 2023-02-28", got.Format("2006-01-02"))
	}
	got = AddMonth(Date(2023, time.March, 15), -6)
	if !got.Equal(Date(2022, time.September, 15)) {
		t.Fatalf("AddMonth = %s, want 2022-09-15", got.Format("2006-01-02"))
	}
}

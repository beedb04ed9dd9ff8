package utils

import (
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConvention is wrapped by YearFraction for unsupported day counts.
var ErrInvalidConvention = fmt.Errorf("invalid day count convention")

// YearFraction computes the year fraction between two dates using the
// specified day count convention.
//
// Supported conventions: ACT/360, ACT/365F, ACT/ACT (ISDA), 30E/360, 30/360.
// ActActICMA is period-relative and therefore computed by the schedule layer,
// not here.
func YearFraction(start, end time.Time, convention string) (float64, error) {
	switch strings.ToUpper(convention) {
	case "ACT/360", "ACT360":
		return Days(start, end) / 360.0, nil
	case "ACT/365F", "ACT365F":
		return Days(start, end) / 365.0, nil
	case "ACT/ACT", "ACTACT":
		return actActISDA(start, end), nil
	case "30E/360", "30/360", "30E360":
		// 30E/360 (Eurobond basis): D1 and D2 capped at 30.
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0, nil
	default:
		return 0, fmt.Errorf("YearFraction: %q: %w", convention, ErrInvalidConvention)
	}
}

// actActISDA splits the interval at year boundaries, dividing each piece by
// the actual length of its year.
func actActISDA(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	total := 0.0
	cur := start
	for cur.Year() < end.Year() {
		boundary := time.Date(cur.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
		total += Days(cur, boundary) / yearLength(cur.Year())
		cur = boundary
	}
	total += Days(cur, end) / yearLength(cur.Year())
	return total
}

func yearLength(year int) float64 {
	if isLeap(year) {
		return 366
	}
	return 365
}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// Package calendar provides business-day calendars and date adjustment
// conventions used for schedule generation and settlement arithmetic.
package calendar

import "time"

// ID identifies a holiday calendar.
type ID string

const (
	LDN ID = "LDN" // London
	STK ID = "STK" // Stockholm
	NYC ID = "NYC" // New York
	TGT ID = "TGT" // TARGET (EUR)
	ALL ID = "ALL" // weekends only
)

var ldnHolidays = map[string]struct{}{}
var stkHolidays = map[string]struct{}{}
var nycHolidays = map[string]struct{}{}
var tgtHolidays = map[string]struct{}{}

func init() {
	for _, h := range ldnHolidayList {
		ldnHolidays[h] = struct{}{}
	}
	for _, h := range stkHolidayList {
		stkHolidays[h] = struct{}{}
	}
	for _, h := range nycHolidayList {
		nycHolidays[h] = struct{}{}
	}
	for _, h := range tgtHolidayList {
		tgtHolidays[h] = struct{}{}
	}
}

func isHoliday(cal ID, t time.Time) bool {
	key := t.Format("2006-01-02")
	switch cal {
	case LDN:
		_, ok := ldnHolidays[key]
		return ok
	case STK:
		_, ok := stkHolidays[key]
		return ok
	case NYC:
		_, ok := nycHolidays[key]
		return ok
	case TGT:
		_, ok := tgtHolidays[key]
		return ok
	default:
		return false
	}
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal ID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal ID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal ID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal ID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// BusinessDaysBefore returns the date n business days before t. It is the
// ex-dividend boundary primitive: a bond settling on or after
// BusinessDaysBefore(nextCoupon, exDivDays) trades without the coupon.
func BusinessDaysBefore(cal ID, t time.Time, n int) time.Time {
	return AddBusinessDays(cal, t, -n)
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal ID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal ID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}

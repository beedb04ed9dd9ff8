package fx

import (
	"strings"
	"time"
)

// Fixed is a table of observed or pre-agreed FX fixings keyed by pair and
// fixing date. Lookups fall back to the inverse quotation reciprocally.
type Fixed struct {
	rates map[string]map[time.Time]float64
}

// NewFixed returns an empty fixing table.
func NewFixed() *Fixed {
	return &Fixed{rates: map[string]map[time.Time]float64{}}
}

// Set records a fixing for the pair on the given date.
func (f *Fixed) Set(pair string, date time.Time, rate float64) {
	pair = strings.ToLower(pair)
	if f.rates[pair] == nil {
		f.rates[pair] = map[time.Time]float64{}
	}
	f.rates[pair][date] = rate
}

// Rate returns the fixing for the pair on the date, trying the inverse
// quotation if the pair itself was not recorded.
func (f *Fixed) Rate(pair string, date time.Time) (float64, bool) {
	pair = strings.ToLower(pair)
	if len(pair) != 6 {
		return 0, false
	}
	if r, ok := f.rates[pair][date]; ok {
		return r, true
	}
	if r, ok := f.rates[pair[3:]+pair[:3]][date]; ok && r != 0 {
		return 1 / r, true
	}
	return 0, false
}

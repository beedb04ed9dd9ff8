package fx

import (
	"math"
	"testing"
	"time"

	"github.com/marcopist/rateslib/utils"
)

func TestFixedTable(t *testing.T) {
	t.Parallel()

	f := NewFixed()
	d := utils.Date(2023, time.January, 10)
	f.Set("EURUSD", d, 1.10)

	r, ok := f.Rate("eurusd", d)
	if !ok || r != 1.10 {
		t.Fatalf("Rate = %g, %v", r, ok)
	}
	// inverse quotation resolves reciprocally
	r, ok = f.Rate("usdeur", d)
	if !ok || math.Abs(r-1/1.10) > 1e-15 {
		t.Fatalf("inverse Rate = %g, %v", r, ok)
	}
	if _, ok := f.Rate("eurusd", d.AddDate(0, 0, 1)); ok {
		t.Fatalf("unfixed date should miss")
	}
	if _, ok := f.Rate("gbpusd", d); ok {
		t.Fatalf("unknown pair should miss")
	}
}

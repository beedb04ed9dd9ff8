package marketdata

import (
	"strings"
	"testing"
	"time"

	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/utils"
)

func TestReadFixings(t *testing.T) {
	t.Parallel()

	in := "date,rate\n2023-01-10,3.05\n2023-01-11,3.07\n"
	got, err := ReadFixings(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadFixings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("fixings = %d, want 2", len(got))
	}
	if r := got[utils.Date(2023, time.January, 10)]; r != 3.05 {
		t.Fatalf("fixing = %g, want 3.05", r)
	}
	if r := got[utils.Date(2023, time.January, 11)]; r != 3.07 {
		t.Fatalf("fixing = %g, want 3.07", r)
	}
}

func TestReadFixingsBadDate(t *testing.T) {
	t.Parallel()

	in := "date,rate\n10/01/2023,3.05\n"
	if _, err := ReadFixings(strings.NewReader(in)); err == nil {
		t.Fatalf("want error for non-ISO date")
	}
}

func TestWriteCashflowsCSV(t *testing.T) {
	t.Parallel()

	rows := []leg.CashflowRow{
		{
			Type:     "FixedPeriod",
			Start:    utils.Date(2023, time.January, 10),
			End:      utils.Date(2023, time.April, 10),
			Payment:  utils.Date(2023, time.April, 10),
			Notional: 1e6,
			DCF:      0.25,
			Rate:     4.0,
			Cashflow: -10000,
			DF:       0.99,
			NPV:      -9900,
		},
		{
			Type:     "Exchange",
			Payment:  utils.Date(2024, time.January, 10),
			Notional: 1e6,
			Cashflow: 1e6,
			DF:       0.97,
			NPV:      970000,
		},
	}

	var sb strings.Builder
	if err := WriteCashflowsCSV(&sb, rows); err != nil {
		t.Fatalf("WriteCashflowsCSV: %v", err)
	}
	out := sb.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), out)
	}
	if lines[0] != "type,start,end,payment,notional,dcf,rate,cashflow,df,npv" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "FixedPeriod,2023-01-10,2023-04-10,2023-04-10,") {
		t.Fatalf("row 1 = %q", lines[1])
	}
	// exchanges have no accrual period: empty start and end columns
	if !strings.HasPrefix(lines[2], "Exchange,,,2024-01-10,") {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

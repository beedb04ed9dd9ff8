// Package marketdata loads and persists observed rate fixings: CSV files for
// ad-hoc use and a Postgres store for shared history.
package marketdata

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/marcopist/rateslib/leg"
)

const dateLayout = "2006-01-02"

type fixingRow struct {
	Date string  `csv:"date"`
	Rate float64 `csv:"rate"`
}

// LoadFixingsCSV reads a date,rate CSV into a fixings map keyed by UTC date.
// Rates are in percent.
func LoadFixingsCSV(path string) (map[time.Time]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata.LoadFixingsCSV: %w", err)
	}
	defer f.Close()
	return ReadFixings(f)
}

// ReadFixings parses date,rate CSV rows from r.
func ReadFixings(r io.Reader) (map[time.Time]float64, error) {
	var rows []fixingRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("marketdata.ReadFixings: %w", err)
	}
	out := make(map[time.Time]float64, len(rows))
	for _, row := range rows {
		t, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("marketdata.ReadFixings: bad date %q: %w", row.Date, err)
		}
		out[t.UTC()] = row.Rate
	}
	return out, nil
}

type cashflowCSVRow struct {
	Type     string  `csv:"type"`
	Start    string  `csv:"start"`
	End      string  `csv:"end"`
	Payment  string  `csv:"payment"`
	Notional float64 `csv:"notional"`
	DCF      float64 `csv:"dcf"`
	Rate     float64 `csv:"rate"`
	Cashflow float64 `csv:"cashflow"`
	DF       float64 `csv:"df"`
	NPV      float64 `csv:"npv"`
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// WriteCashflowsCSV renders a cashflow report as CSV.
func WriteCashflowsCSV(w io.Writer, rows []leg.CashflowRow) error {
	out := make([]cashflowCSVRow, len(rows))
	for i, r := range rows {
		out[i] = cashflowCSVRow{
			Type:     r.Type,
			Start:    fmtDate(r.Start),
			End:      fmtDate(r.End),
			Payment:  fmtDate(r.Payment),
			Notional: r.Notional,
			DCF:      r.DCF,
			Rate:     r.Rate,
			Cashflow: r.Cashflow,
			DF:       r.DF,
			NPV:      r.NPV,
		}
	}
	if err := gocsv.Marshal(&out, w); err != nil {
		return fmt.Errorf("marketdata.WriteCashflowsCSV: %w", err)
	}
	return nil
}

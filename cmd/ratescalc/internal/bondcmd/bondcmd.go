// Package bondcmd implements `ratescalc bond`: street-convention price,
// yield, accrued interest and risk for a fixed rate bond.
package bondcmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/marcopist/rateslib/bond"
	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/dual"
)

type input struct {
	Effective       string  `json:"effective"`
	Termination     string  `json:"termination"`
	FrequencyMonths int     `json:"frequency_months"`
	Convention      string  `json:"convention"`
	Calendar        string  `json:"calendar"`
	FixedRate       float64 `json:"fixed_rate"`
	ExDivDays       int     `json:"ex_div_days"`
	Settlement      string  `json:"settlement"`
	// Exactly one of YTM (%) or DirtyPrice (per 100) drives the calculation.
	YTM        *float64 `json:"ytm,omitempty"`
	DirtyPrice *float64 `json:"dirty_price,omitempty"`
}

type output struct {
	Settlement string  `json:"settlement"`
	ExDiv      bool    `json:"ex_div"`
	Accrued    float64 `json:"accrued"`
	YTM        float64 `json:"ytm"`
	DirtyPrice float64 `json:"dirty_price"`
	CleanPrice float64 `json:"clean_price"`
	Risk       float64 `json:"risk"`
	Modified   float64 `json:"modified_duration"`
	Convexity  float64 `json:"convexity"`
	Error      string  `json:"error,omitempty"`
}

// Run executes the bond subcommand.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bond", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (reads stdin if omitted)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var in input
	if err := readJSON(*inputPath, stdin, &in); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	out, err := compute(in)
	if err != nil {
		out.Error = err.Error()
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if out.Error != "" {
		return 1
	}
	return 0
}

func compute(in input) (output, error) {
	effective, err := parseDate(in.Effective)
	if err != nil {
		return output{}, fmt.Errorf("effective: %w", err)
	}
	termination, err := parseDate(in.Termination)
	if err != nil {
		return output{}, fmt.Errorf("termination: %w", err)
	}
	settlement, err := parseDate(in.Settlement)
	if err != nil {
		return output{}, fmt.Errorf("settlement: %w", err)
	}

	b, err := bond.NewFixedRateBond(bond.FixedBondSpec{
		Effective:   effective,
		Termination: termination,
		FreqMonths:  in.FrequencyMonths,
		Convention:  in.Convention,
		Calendar:    calendar.ID(strings.ToUpper(in.Calendar)),
		FixedRate:   in.FixedRate,
		ExDivDays:   in.ExDivDays,
	})
	if err != nil {
		return output{}, err
	}

	out := output{
		Settlement: in.Settlement,
		ExDiv:      b.ExDiv(settlement),
		Accrued:    b.Accrued(settlement),
	}
	switch {
	case in.YTM != nil:
		out.YTM = *in.YTM
	case in.DirtyPrice != nil:
		y, err := b.YTM(dual.Const(*in.DirtyPrice), settlement, true)
		if err != nil {
			return out, err
		}
		out.YTM = y.Real()
	default:
		return out, fmt.Errorf("one of ytm or dirty_price is required")
	}

	out.DirtyPrice = b.Price(out.YTM, settlement, true)
	out.CleanPrice = b.Price(out.YTM, settlement, false)
	if out.Risk, err = b.Duration(out.YTM, settlement, bond.MetricRisk); err != nil {
		return out, err
	}
	if out.Modified, err = b.Duration(out.YTM, settlement, bond.MetricModified); err != nil {
		return out, err
	}
	out.Convexity = b.Convexity(out.YTM, settlement)
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func readJSON(path string, stdin io.Reader, v any) error {
	r := stdin
	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}

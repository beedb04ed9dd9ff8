// Package irscmd implements `ratescalc irs`: mid-market rate, NPV, analytic
// delta and per-node curve deltas for a fixed-for-float swap.
package irscmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/marcopist/rateslib/calendar"
	"github.com/marcopist/rateslib/curve"
	"github.com/marcopist/rateslib/instruments"
	"github.com/marcopist/rateslib/leg"
	"github.com/marcopist/rateslib/marketdata"
	"github.com/marcopist/rateslib/solver"
)

type curveJSON struct {
	ID string `json:"id"`
	// Nodes maps "2006-01-02" dates to discount factors.
	Nodes map[string]float64 `json:"nodes"`
}

type input struct {
	Effective       string   `json:"effective"`
	Termination     string   `json:"termination"`
	FrequencyMonths int      `json:"frequency_months"`
	Convention      string   `json:"convention"`
	Calendar        string   `json:"calendar"`
	Currency        string   `json:"currency"`
	Notional        float64  `json:"notional"`
	FixedRate       *float64 `json:"fixed_rate,omitempty"`
	FixingMethod    string   `json:"fixing_method,omitempty"`
	MethodParam     int      `json:"method_param,omitempty"`
	SpreadCompound  string   `json:"spread_compound,omitempty"`
	FloatSpreadBP   float64  `json:"float_spread_bp,omitempty"`
	// Forecast is required; Discount defaults to Forecast.
	Forecast curveJSON  `json:"forecast_curve"`
	Discount *curveJSON `json:"discount_curve,omitempty"`
}

type output struct {
	MidRate       float64              `json:"mid_rate"`
	NPV           float64              `json:"npv"`
	AnalyticDelta float64              `json:"analytic_delta"`
	CurveDeltas   map[string][]float64 `json:"curve_deltas"`
	Error         string               `json:"error,omitempty"`
}

// Run executes the irs subcommand.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("irs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (reads stdin if omitted)")
	fixingsPath := fs.String("fixings", "", "optional date,rate CSV of observed fixings")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var in input
	if err := readJSON(*inputPath, stdin, &in); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	var fixings map[time.Time]float64
	if *fixingsPath != "" {
		var err error
		if fixings, err = marketdata.LoadFixingsCSV(*fixingsPath); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	out, err := compute(in, fixings)
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

func compute(in input, fixings map[time.Time]float64) (output, error) {
	effective, err := parseDate(in.Effective)
	if err != nil {
		return output{}, fmt.Errorf("effective: %w", err)
	}
	termination, err := parseDate(in.Termination)
	if err != nil {
		return output{}, fmt.Errorf("termination: %w", err)
	}

	fore, err := buildCurve(in.Forecast)
	if err != nil {
		return output{}, err
	}
	curves := []*curve.Curve{fore}
	refs := []instruments.CurveRef{instruments.ByID(fore.ID())}
	if in.Discount != nil {
		disc, err := buildCurve(*in.Discount)
		if err != nil {
			return output{}, err
		}
		curves = append(curves, disc)
		refs = append(refs, instruments.ByID(disc.ID()))
	}

	swap, err := instruments.NewIRS(instruments.IRSSpec{
		Effective:   effective,
		Termination: termination,
		FreqMonths:  in.FrequencyMonths,
		Convention:  in.Convention,
		Calendar:    calendar.ID(strings.ToUpper(in.Calendar)),
		Currency:    in.Currency,
		Notional:    in.Notional,
		FixedRate:   in.FixedRate,
		Float: leg.FloatConfig{
			FixingMethod:   in.FixingMethod,
			MethodParam:    in.MethodParam,
			SpreadCompound: in.SpreadCompound,
			Fixings:        fixings,
			SpreadBP:       in.FloatSpreadBP,
		},
	})
	if err != nil {
		return output{}, err
	}

	pricing := instruments.Pricing{
		Curves: refs,
		Solver: solver.New(curves, nil, solver.PolicyRaise, nil),
	}
	var out output
	mid, err := swap.Rate(pricing)
	if err != nil {
		return out, err
	}
	out.MidRate = mid.Real()
	npv, err := swap.NPV(pricing)
	if err != nil {
		return out, err
	}
	out.NPV = npv.Real()
	ad, err := swap.AnalyticDelta(pricing)
	if err != nil {
		return out, err
	}
	out.AnalyticDelta = ad.Real()
	delta, err := instruments.Delta(swap, pricing)
	if err != nil {
		return out, err
	}
	out.CurveDeltas = delta.Curves
	return out, nil
}

func buildCurve(cj curveJSON) (*curve.Curve, error) {
	nodes := make(map[time.Time]float64, len(cj.Nodes))
	for ds, df := range cj.Nodes {
		d, err := parseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("curve %q node %q: %w", cj.ID, ds, err)
		}
		nodes[d] = df
	}
	c, err := curve.New(cj.ID, nodes)
	if err != nil {
		return nil, err
	}
	return c, nil
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

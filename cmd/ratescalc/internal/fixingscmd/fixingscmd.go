// Package fixingscmd implements `ratescalc fixings`: load a date,rate CSV of
// observed fixings and optionally persist it to Postgres.
//
// The Postgres DSN comes from the DATABASE_URL environment variable, loaded
// from a .env file when present. Without a DSN the command validates the CSV
// and prints a summary.
package fixingscmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcopist/rateslib/marketdata"
)

// Run executes the fixings subcommand.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fixings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	csvPath := fs.String("csv", "", "date,rate CSV path (reads stdin if omitted)")
	series := fs.String("series", "", "series name, required when persisting")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var (
		fixings map[time.Time]float64
		err     error
	)
	if *csvPath != "" {
		fixings, err = marketdata.LoadFixingsCSV(*csvPath)
	} else {
		fixings, err = marketdata.ReadFixings(stdin)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if len(fixings) == 0 {
		fmt.Fprintln(stderr, "no fixings found")
		return 2
	}

	dates := make([]time.Time, 0, len(fixings))
	for d := range fixings {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	fmt.Fprintf(stdout, "loaded %d fixings from %s to %s\n",
		len(fixings), dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02"))

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return 0
	}
	if *series == "" {
		fmt.Fprintln(stderr, "-series is required when DATABASE_URL is set")
		return 2
	}

	store, err := marketdata.OpenStore(dsn)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := store.SaveFixings(ctx, *series, fixings); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "saved series %q\n", *series)
	return 0
}

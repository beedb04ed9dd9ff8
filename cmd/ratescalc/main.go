package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcopist/rateslib/cmd/ratescalc/internal/bondcmd"
	"github.com/marcopist/rateslib/cmd/ratescalc/internal/fixingscmd"
	"github.com/marcopist/rateslib/cmd/ratescalc/internal/irscmd"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "bond":
		return bondcmd.Run(args[1:], stdin, stdout, stderr)
	case "irs":
		return irscmd.Run(args[1:], stdin, stdout, stderr)
	case "fixings":
		return fixingscmd.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ratescalc <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  bond     Fixed rate bond price, yield, accrued and risk")
	fmt.Fprintln(w, "  irs      IRS mid-market rate, NPV and curve deltas")
	fmt.Fprintln(w, "  fixings  Load fixing CSVs, optionally into Postgres")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `ratescalc <command> -h` for command-specific help.")
}

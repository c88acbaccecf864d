// Command unitcalc runs the unit economics engine from the command line
// against the built-in profile or a YAML rates file.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Simplici0/fbaunit/internal/export"
	"github.com/Simplici0/fbaunit/internal/pricing"
	"github.com/Simplici0/fbaunit/internal/profiles"
	"github.com/Simplici0/fbaunit/internal/report"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

type options struct {
	ratesFile string
	profile   string
	inputs    pricing.UnitInputs
	target    string
	tier      string
	grid      bool
	spread    float64
	steps     int
	scenarios bool
	report    string
	format    string
	units     int
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "unitcalc: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("unitcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.ratesFile, "rates", "", "YAML file with rate profiles (default: built-in profile)")
	fs.StringVar(&opts.profile, "profile", profiles.DefaultName, "Profile name to use")
	fs.Float64Var(&opts.inputs.SalePrice, "price", 0, "Sale price per unit")
	fs.Float64Var(&opts.inputs.UnitCost, "cost", 0, "Supplier cost per unit")
	fs.Float64Var(&opts.inputs.InboundCost, "inbound", 0, "Inbound shipping cost per unit")
	fs.Float64Var(&opts.inputs.PrepCost, "prep", 0, "Prep and labeling cost per unit")
	fs.StringVar(&opts.target, "target", "", "Solve the price for this net margin percent")
	fs.StringVar(&opts.tier, "tier", "standard", "Tier hint for -target: standard, low_price")
	fs.BoolVar(&opts.grid, "grid", false, "Run the price x cost sensitivity grid")
	fs.Float64Var(&opts.spread, "spread", 0.2, "Grid multiplier spread, as a fraction")
	fs.IntVar(&opts.steps, "steps", 5, "Grid steps per axis")
	fs.BoolVar(&opts.scenarios, "scenarios", false, "Run the profile's named scenarios")
	fs.StringVar(&opts.report, "report", "", "Render a report instead: md, html")
	fs.StringVar(&opts.format, "format", formatTable, "Output format: table, csv, json")
	fs.IntVar(&opts.units, "units", 0, "Project totals for this many units (0 disables; table, json and -report only)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	modes := 0
	for _, on := range []bool{opts.target != "", opts.grid, opts.scenarios, opts.report != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return options{}, errors.New("-target, -grid, -scenarios and -report are mutually exclusive")
	}

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch opts.format {
	case formatTable, formatCSV, formatJSON:
	default:
		return options{}, fmt.Errorf("invalid -format %q: must be table, csv or json", opts.format)
	}
	switch opts.report {
	case "", "md", "html":
	default:
		return options{}, fmt.Errorf("invalid -report %q: must be md or html", opts.report)
	}
	if opts.units < 0 {
		return options{}, errors.New("-units must be >= 0")
	}
	if opts.units > 0 && (opts.grid || opts.scenarios || opts.format == formatCSV) {
		return options{}, errors.New("-units cannot be combined with -grid, -scenarios or -format csv")
	}
	return opts, nil
}

func loadProfile(opts options) (profiles.Profile, error) {
	if opts.ratesFile == "" {
		if opts.profile != profiles.DefaultName {
			return profiles.Profile{}, fmt.Errorf("profile %q requires -rates", opts.profile)
		}
		return profiles.Default(), nil
	}
	list, err := profiles.LoadFile(opts.ratesFile)
	if err != nil {
		return profiles.Profile{}, err
	}
	return profiles.Find(list, opts.profile)
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	profile, err := loadProfile(opts)
	if err != nil {
		return err
	}
	rates := profile.Rates

	switch {
	case opts.target != "":
		return runSolve(stdout, opts, rates)
	case opts.grid:
		grid, err := pricing.RunGrid(rates, opts.inputs,
			pricing.SensitivitySteps(opts.spread, opts.steps),
			pricing.SensitivitySteps(opts.spread, opts.steps))
		if err != nil {
			return err
		}
		switch opts.format {
		case formatCSV:
			return export.WriteCSV(stdout, export.GridRows(grid))
		case formatJSON:
			return writeJSON(stdout, grid)
		}
		return writeGridTable(stdout, grid)
	case opts.scenarios:
		scenarios := profile.Scenarios
		if len(scenarios) == 0 {
			scenarios = pricing.DefaultScenarios()
		}
		results, err := pricing.RunNamed(rates, opts.inputs, scenarios)
		if err != nil {
			return err
		}
		switch opts.format {
		case formatCSV:
			return export.WriteCSV(stdout, export.NamedRows(results))
		case formatJSON:
			return writeJSON(stdout, results)
		}
		return writeScenarioTable(stdout, results)
	case opts.report != "":
		return runReport(stdout, opts, profile)
	}

	res, err := pricing.Compute(rates, opts.inputs)
	if err != nil {
		return err
	}
	var projection *pricing.Projection
	if opts.units > 0 {
		p, err := pricing.Project(res, opts.units)
		if err != nil {
			return err
		}
		projection = &p
	}
	diagnosis := pricing.Diagnose(res)

	switch opts.format {
	case formatCSV:
		return export.WriteCSV(stdout, export.SingleRow(profile.Name, res))
	case formatJSON:
		return writeJSON(stdout, map[string]any{
			"profile":    profile.Name,
			"result":     res,
			"diagnosis":  diagnosis,
			"projection": projection,
		})
	}
	return writeResultTable(stdout, res, diagnosis, projection)
}

func runSolve(stdout io.Writer, opts options, rates pricing.RateConfig) error {
	target, err := strconv.ParseFloat(strings.TrimSpace(opts.target), 64)
	if err != nil {
		return fmt.Errorf("-target must be numeric: %w", err)
	}
	hint, err := pricing.ParseTier(opts.tier)
	if err != nil {
		return err
	}
	sol, err := pricing.SolvePriceForMargin(rates, opts.inputs, target, hint)
	if err != nil {
		return err
	}
	var projection *pricing.Projection
	if opts.units > 0 {
		p, err := pricing.Project(sol.Result, opts.units)
		if err != nil {
			return err
		}
		projection = &p
	}

	switch opts.format {
	case formatCSV:
		return export.WriteCSV(stdout, export.SingleRow("target", sol.Result))
	case formatJSON:
		return writeJSON(stdout, map[string]any{
			"solution":   sol,
			"projection": projection,
		})
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "price\t%s\n", export.FormatNumber(sol.Price))
	fmt.Fprintf(tw, "tier\t%s\n", sol.Tier)
	fmt.Fprintf(tw, "retiered\t%t\n", sol.Retiered)
	fmt.Fprintf(tw, "net_margin_pct\t%s\n", export.FormatNumber(sol.Result.NetMarginPct))
	fmt.Fprintf(tw, "net_profit\t%s\n", export.FormatNumber(sol.Result.NetProfit))
	writeProjection(tw, projection)
	return tw.Flush()
}

func runReport(stdout io.Writer, opts options, profile profiles.Profile) error {
	res, err := pricing.Compute(profile.Rates, opts.inputs)
	if err != nil {
		return err
	}
	scenarios := profile.Scenarios
	if len(scenarios) == 0 {
		scenarios = pricing.DefaultScenarios()
	}
	named, err := pricing.RunNamed(profile.Rates, opts.inputs, scenarios)
	if err != nil {
		return err
	}
	in := report.Input{
		Title:     profile.Description,
		Currency:  profile.Currency,
		Result:    res,
		Diagnosis: pricing.Diagnose(res),
		Scenarios: named,
	}
	if opts.units > 0 {
		p, err := pricing.Project(res, opts.units)
		if err != nil {
			return err
		}
		in.Projection = &p
	}

	if opts.report == "md" {
		_, err := io.WriteString(stdout, report.Markdown(in))
		return err
	}
	html, err := report.HTML(in)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, html)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResultTable(w io.Writer, res pricing.Result, d pricing.Diagnosis, p *pricing.Projection) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cells := export.Record(export.Row{Result: res})
	for i := 1; i < len(export.Columns); i++ {
		fmt.Fprintf(tw, "%s\t%s\n", export.Columns[i], cells[i])
	}
	writeProjection(tw, p)
	fmt.Fprintf(tw, "health\t%s (%d/100)\n", d.Health, d.Score)
	for _, f := range d.Findings {
		fmt.Fprintf(tw, "%s\t%s\n", f.Code, f.Message)
	}
	return tw.Flush()
}

func writeProjection(w io.Writer, p *pricing.Projection) {
	if p == nil {
		return
	}
	fmt.Fprintf(w, "units\t%d\n", p.Units)
	fmt.Fprintf(w, "projected_revenue\t%s\n", export.FormatNumber(p.Revenue))
	fmt.Fprintf(w, "projected_net_profit\t%s\n", export.FormatNumber(p.NetProfit))
}

func writeGridTable(w io.Writer, g pricing.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "price \\ cost\t")
	for _, cm := range g.CostMultipliers {
		fmt.Fprintf(tw, "%s\t", export.SignedPercent(cm))
	}
	fmt.Fprintln(tw)
	for i, pm := range g.PriceMultipliers {
		fmt.Fprintf(tw, "%s\t", export.SignedPercent(pm))
		for j := range g.CostMultipliers {
			fmt.Fprintf(tw, "%s\t", export.FormatNumber(g.Cells[i][j].NetProfit))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func writeScenarioTable(w io.Writer, results []pricing.NamedResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "scenario\tsale_price\tnet_profit\tnet_margin_pct")
	for _, nr := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", nr.Name,
			export.FormatNumber(nr.Result.SalePrice),
			export.FormatNumber(nr.Result.NetProfit),
			export.FormatNumber(nr.Result.NetMarginPct))
	}
	return tw.Flush()
}

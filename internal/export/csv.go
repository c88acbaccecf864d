// Package export serializes engine results to row-oriented tabular formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/fbaunit/internal/pricing"
)

// precision is the number of decimal places written for every numeric cell.
const precision = 6

// Columns is the CSV header: a label column followed by one column per result field.
var Columns = []string{
	"scenario",
	"sale_price",
	"tax_amount",
	"commission_amount",
	"ads_amount",
	"return_loss_amount",
	"fulfillment_amount",
	"inbound_freight_amount",
	"storage_amount",
	"fixed_fee_amount",
	"misc_amount",
	"cogs_total",
	"total_costs",
	"net_profit",
	"net_margin_pct",
	"gross_margin_pct",
	"roi_pct",
	"markup",
	"break_even_price",
	"break_even_feasible",
	"break_even_ambiguous",
}

// Row is one labeled result.
type Row struct {
	Label  string
	Result pricing.Result
}

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(Record(row)); err != nil {
			return fmt.Errorf("write csv row %q: %w", row.Label, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Record returns the cells of row in Columns order.
func Record(row Row) []string {
	r := row.Result
	breakEven := ""
	if r.BreakEven.Feasible {
		breakEven = FormatNumber(r.BreakEven.Price)
	}
	return []string{
		row.Label,
		FormatNumber(r.SalePrice),
		FormatNumber(r.TaxAmount),
		FormatNumber(r.CommissionAmount),
		FormatNumber(r.AdsAmount),
		FormatNumber(r.ReturnLossAmount),
		FormatNumber(r.FulfillmentAmount),
		FormatNumber(r.InboundFreightAmount),
		FormatNumber(r.StorageAmount),
		FormatNumber(r.FixedFeeAmount),
		FormatNumber(r.MiscAmount),
		FormatNumber(r.CogsTotal),
		FormatNumber(r.TotalCosts),
		FormatNumber(r.NetProfit),
		FormatNumber(r.NetMarginPct),
		FormatNumber(r.GrossMarginPct),
		FormatNumber(r.RoiPct),
		FormatNumber(r.Markup),
		breakEven,
		strconv.FormatBool(r.BreakEven.Feasible),
		strconv.FormatBool(r.BreakEven.Ambiguous),
	}
}

// FormatNumber renders v rounded half away from zero to six decimal places,
// without trailing zeros. NaN and infinities are written as strconv spells them.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(precision).String()
}

// SingleRow wraps one result.
func SingleRow(label string, r pricing.Result) []Row {
	return []Row{{Label: label, Result: r}}
}

// NamedRows converts named scenario results, keeping their order.
func NamedRows(results []pricing.NamedResult) []Row {
	rows := make([]Row, len(results))
	for i, nr := range results {
		rows[i] = Row{Label: nr.Name, Result: nr.Result}
	}
	return rows
}

// GridRows flattens a grid price-major, labeling each cell with its multipliers.
func GridRows(g pricing.Grid) []Row {
	rows := make([]Row, 0, len(g.PriceMultipliers)*len(g.CostMultipliers))
	for i, pm := range g.PriceMultipliers {
		for j, cm := range g.CostMultipliers {
			rows = append(rows, Row{
				Label:  fmt.Sprintf("price%s/cost%s", SignedPercent(pm), SignedPercent(cm)),
				Result: g.Cells[i][j],
			})
		}
	}
	return rows
}

// SignedPercent renders a fractional multiplier as a signed percentage, e.g. "-10%".
func SignedPercent(m float64) string {
	d := decimal.NewFromFloat(m).Mul(decimal.NewFromInt(100)).Round(2)
	if d.IsNegative() {
		return d.String() + "%"
	}
	return "+" + d.String() + "%"
}

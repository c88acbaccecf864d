// Package report renders a calculation, its diagnosis and its scenarios as a
// Markdown document, and converts that document to HTML.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Simplici0/fbaunit/internal/pricing"
)

// Input is everything a report can show. Zero-valued optional parts are omitted.
type Input struct {
	Title      string
	Currency   string
	Result     pricing.Result
	Diagnosis  pricing.Diagnosis
	Scenarios  []pricing.NamedResult
	Target     *pricing.Solution
	TargetPct  float64
	Projection *pricing.Projection
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders in as a Markdown document.
func Markdown(in Input) string {
	var b strings.Builder
	r := in.Result

	title := in.Title
	if title == "" {
		title = "Unit economics"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	status := "profitable"
	if r.NetProfit <= 0 {
		status = "loss-making"
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n", status)

	b.WriteString("## Key figures\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Sale price | %s |\n", in.money(r.SalePrice))
	fmt.Fprintf(&b, "| Net profit | %s |\n", in.money(r.NetProfit))
	fmt.Fprintf(&b, "| Net margin | %s |\n", pct(r.NetMarginPct))
	fmt.Fprintf(&b, "| Gross margin | %s |\n", pct(r.GrossMarginPct))
	fmt.Fprintf(&b, "| ROI | %s |\n", pct(r.RoiPct))
	fmt.Fprintf(&b, "| Markup | %sx |\n", fixed(r.Markup))
	switch {
	case r.BreakEven.Feasible:
		fmt.Fprintf(&b, "| Break-even price | %s |\n", in.money(r.BreakEven.Price))
	case r.BreakEven.Ambiguous:
		b.WriteString("| Break-even price | ambiguous at the low-price threshold |\n")
	default:
		b.WriteString("| Break-even price | unreachable |\n")
	}
	b.WriteString("\n")

	b.WriteString("## Cost waterfall\n\n")
	b.WriteString("| Line | Amount |\n|---|---|\n")
	lines := []struct {
		label  string
		amount float64
	}{
		{"Sale price", r.SalePrice},
		{"Taxes", -r.TaxAmount},
		{"Commission", -r.CommissionAmount},
		{"Low-price fee", -r.FixedFeeAmount},
		{"Fulfillment", -r.FulfillmentAmount},
		{"Inbound freight", -r.InboundFreightAmount},
		{"COGS", -r.CogsTotal},
		{"Ads (TACOS)", -r.AdsAmount},
		{"Storage", -r.StorageAmount},
		{"Returns", -r.ReturnLossAmount},
		{"Other", -r.MiscAmount},
	}
	for _, l := range lines {
		if l.amount == 0 && l.label != "Sale price" {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s |\n", l.label, in.money(l.amount))
	}
	fmt.Fprintf(&b, "| **Net profit** | **%s** |\n\n", in.money(r.NetProfit))

	if in.Projection != nil {
		p := in.Projection
		fmt.Fprintf(&b, "## Projection for %d units\n\n", p.Units)
		fmt.Fprintf(&b, "- Revenue: %s\n- Total costs: %s\n- Net profit: %s\n\n",
			in.money(p.Revenue), in.money(p.TotalCosts), in.money(p.NetProfit))
	}

	if in.Target != nil {
		b.WriteString("## Target price\n\n")
		fmt.Fprintf(&b, "To earn %s net, sell at **%s** (%s tier).\n\n",
			pct(in.TargetPct), in.money(in.Target.Price), in.Target.Tier)
	}

	if len(in.Scenarios) > 0 {
		b.WriteString("## Scenarios\n\n")
		b.WriteString("| Scenario | Price | Net profit | Net margin |\n|---|---|---|---|\n")
		for _, sc := range in.Scenarios {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", sc.Name,
				in.money(sc.Result.SalePrice), in.money(sc.Result.NetProfit), pct(sc.Result.NetMarginPct))
		}
		b.WriteString("\n")
	}

	if len(in.Diagnosis.Findings) > 0 {
		fmt.Fprintf(&b, "## Diagnosis: %d/100 (%s)\n\n", in.Diagnosis.Score, in.Diagnosis.Health)
		for _, f := range in.Diagnosis.Findings {
			fmt.Fprintf(&b, "- **%s** %s: %s\n", strings.ToUpper(f.Level), f.Code, f.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders in as Markdown and converts it to an HTML fragment.
func HTML(in Input) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(in)), &buf); err != nil {
		return "", fmt.Errorf("convert report markdown: %w", err)
	}
	return buf.String(), nil
}

func (in Input) money(v float64) string {
	s := fixed(v)
	if in.Currency == "" {
		return s
	}
	return s + " " + in.Currency
}

func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func pct(v float64) string {
	return fixed(v) + "%"
}

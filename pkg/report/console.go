package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

var money = message.NewPrinter(language.English)

// Money renders a dollar amount with thousands separators, e.g. $1,234.50.
func Money(v float64) string {
	return money.Sprintf("$%.2f", v)
}

// PrintSummary renders the executive summary block.
func PrintSummary(w io.Writer, s engine.RiskSummary) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "RISK QUANTIFICATION EXECUTIVE SUMMARY")
	fmt.Fprintln(w, rule)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Findings:\t%d\n", s.TotalFindings)
	fmt.Fprintf(tw, "Critical:\t%d\n", s.CriticalCount)
	fmt.Fprintf(tw, "High:\t%d\n", s.HighCount)
	fmt.Fprintf(tw, "Medium:\t%d\n", s.MediumCount)
	fmt.Fprintf(tw, "Low:\t%d\n", s.LowCount)
	if s.Skipped > 0 {
		fmt.Fprintf(tw, "Skipped:\t%d\n", s.Skipped)
	}
	tw.Flush()

	fmt.Fprintln(w, strings.Repeat("-", 80))
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total ALE:\t%s\t\n", Money(s.TotalALE))
	fmt.Fprintf(tw, "Average ALE:\t%s\t\n", Money(s.AvgALE))
	tw.Flush()
	fmt.Fprintln(w, rule)

	if len(s.ALEByService) > 0 {
		fmt.Fprintln(w, "ALE by service:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, svc := range servicesByALE(s.ALEByService) {
			fmt.Fprintf(tw, "  %s\t%s\n", svc, Money(s.ALEByService[svc]))
		}
		tw.Flush()
	}
}

// PrintTopRisks lists the n records with the highest ALE.
func PrintTopRisks(w io.Writer, records []engine.RiskRecord, n int) {
	if len(records) == 0 || n <= 0 {
		return
	}
	top := make([]engine.RiskRecord, len(records))
	copy(top, records)
	engine.SortByALE(top)
	if len(top) > n {
		top = top[:n]
	}

	fmt.Fprintf(w, "\nTop %d risks:\n", len(top))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  #\tSEVERITY\tSERVICE\tASSET\tFINDING\tALE\n")
	fmt.Fprintf(tw, "  -\t--------\t-------\t-----\t-------\t---\n")
	for i, r := range top {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t%s\n", i+1, r.Severity, r.Service, r.Asset, r.FindingCode, Money(r.ALE))
	}
	tw.Flush()
}

func servicesByALE(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

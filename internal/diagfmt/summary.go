package diagfmt

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"idiomlint/internal/diag"
)

// SummaryRow is one line of the per-rule summary.
type SummaryRow struct {
	Code  diag.Code
	Count int
}

// SummaryTotals are the run-wide counters printed in the footer.
type SummaryTotals struct {
	Files          int
	Cached         int
	ParseErrors    int
	InternalErrors int
	Omitted        int
}

// Summary prints the number of findings per rule as a table.
func Summary(w io.Writer, rows []SummaryRow, totals SummaryTotals) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Rule", "Findings"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	total := 0
	for _, r := range rows {
		table.Append([]string{r.Code.ID(), r.Code.Name(), strconv.Itoa(r.Count)})
		total += r.Count
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d files (%d cached)", totals.Files, totals.Cached),
		fmt.Sprintf("%d parse / %d internal errors", totals.ParseErrors, totals.InternalErrors),
		strconv.Itoa(total),
	})
	table.Render()
	if totals.Omitted > 0 {
		fmt.Fprintf(w, "%d diagnostics omitted by --max-diagnostics\n", totals.Omitted)
	}
}

// RuleRow describes one rule for the rules listing.
type RuleRow struct {
	Code     diag.Code
	Category string
	Severity diag.Severity
	Enabled  bool
	Advisory bool
}

// RulesTable lists rules with their effective configuration.
func RulesTable(w io.Writer, rows []RuleRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Rule", "Category", "Severity", "Enabled", "Description"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, r := range rows {
		enabled := "yes"
		if !r.Enabled {
			enabled = "no"
		}
		desc := r.Code.Title()
		if r.Advisory {
			desc += " (advisory)"
		}
		table.Append([]string{r.Code.ID(), r.Code.Name(), r.Category, r.Severity.String(), enabled, desc})
	}
	table.Render()
}

package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report summary as Markdown.
// Individual sandwiches are left to the CSV export.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Sandwich Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Sandwiches | %d |\n", r.Summary.Sandwiches))
	sb.WriteString(fmt.Sprintf("| Victim swaps | %d |\n", r.Summary.Victims))
	sb.WriteString(fmt.Sprintf("| Enriched | %d |\n", r.Summary.Enriched))
	if r.Summary.Sandwiches > 0 {
		sb.WriteString(fmt.Sprintf("| Blocks | %d - %d |\n", r.Summary.FirstBlock, r.Summary.LastBlock))
	}
	sb.WriteString(fmt.Sprintf("| Total profit (USD) | %s |\n", r.Summary.TotalProfitUSD))
	sb.WriteString("\n")

	sb.WriteString("## Profit by Token\n\n")
	if len(r.ByToken) == 0 {
		sb.WriteString("No sandwiches.\n")
		return sb.String()
	}
	sb.WriteString("| Token | Sandwiches | Enriched | Profit | Profit (USD) |\n")
	sb.WriteString("|-------|------------|----------|--------|--------------|\n")
	for _, row := range r.ByToken {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n",
			row.TokenAddress, row.Sandwiches, row.Enriched, row.ProfitDecimal, row.ProfitUSD))
	}

	return sb.String()
}

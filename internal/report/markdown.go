package report

import (
	"bufio"
	"fmt"
	"io"
)

func writeMarkdown(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n\n", reportTitle)
	fmt.Fprintf(bw, "Generated %s\n\n", r.GeneratedAt.Format("02/01/2006 15:04"))
	if len(r.Records) == 0 {
		for _, l := range NoResultsNotice(r.Warning) {
			fmt.Fprintf(bw, "%s\n\n", l)
		}
		return bw.Flush()
	}
	for i, rec := range r.Records {
		fmt.Fprintf(bw, "## %d. %s\n\n", i+1, rec.Title)
		fmt.Fprintf(bw, "- Organization: %s\n", rec.Organization)
		fmt.Fprintf(bw, "- Opens: %s\n", rec.StartDate)
		if rec.HasCloseDate() {
			fmt.Fprintf(bw, "- Closes: **%s**\n", rec.CloseDate)
		} else {
			fmt.Fprintf(bw, "- Closes: %s\n", rec.CloseDate)
		}
		if rec.URL != "" {
			fmt.Fprintf(bw, "- Link: <%s>\n", rec.URL)
		}
		if rec.Description != "" {
			fmt.Fprintf(bw, "\n%s\n", rec.Description)
		}
		bw.WriteString("\n")
	}
	if d := r.Diagnostics; d != nil {
		fmt.Fprintf(bw, "---\n\nProvider: %s, AI calls: %d, AI successes: %d, heuristic fallbacks: %d\n",
			d.Provider, d.AICalls, d.AISuccesses, d.HeuristicFallbacks)
	}
	return bw.Flush()
}

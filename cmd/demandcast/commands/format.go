package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// printHeader prints a formatted command header
func printHeader(w io.Writer, title string, fields ...[2]string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
	for _, f := range fields {
		fmt.Fprintf(w, "  %-10s: %s\n", f[0], f[1])
	}
	fmt.Fprintln(w, singleLine)
}

// printSummary prints the accuracy table, then the failures grouped by reason
func printSummary(w io.Writer, summary contracts.AccuracySummary) {
	fmt.Fprintf(w, "  %-28s %10s %10s %10s %6s\n", "product", "MAE", "RMSE", "MAPE", "n")
	fmt.Fprintln(w, singleLine)
	for _, r := range summary.Records {
		fmt.Fprintf(w, "  %-28s %10.2f %10.2f %10.2f %6d\n",
			contracts.DisplayName(r.Product), r.MAE, r.RMSE, r.MAPE, r.N)
	}

	if len(summary.Failures) == 0 {
		return
	}

	fmt.Fprintln(w, singleLine)
	counts := reasonCounts(summary.Failures)
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  ⚠️  %s: %d\n", reason, counts[reason])
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(w, "     - %s [%s] %s\n", f.Product, f.Stage, f.Err)
	}
}

// printRunResult prints the outcome counts of a pipeline run
func printRunResult(w io.Writer, result *pipeline.Result) {
	printSummary(w, result.Summary)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  Run %s: %d succeeded, %d failed, %d fallback (%.2fs)\n",
		result.RunID, result.Succeeded, result.Failed, result.Fallbacks, result.Duration.Seconds())
	fmt.Fprintln(w, doubleLine)
}

// reasonCounts groups failures by reason for printing
func reasonCounts(failures []contracts.ProductFailure) map[string]int {
	counts := make(map[string]int)
	for _, f := range failures {
		counts[f.Reason]++
	}
	return counts
}

// Package report formats benchmark runs into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/weiihann/ormbench/harness"
)

// Generate writes one markdown comparison table per operation, followed by
// the failures of the run if there were any.
func Generate(w io.Writer, run *harness.Run) error {
	if run == nil || len(run.Results) == 0 {
		return fmt.Errorf("no results to report")
	}

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run `%s` started %s\n", run.ID, run.Started.UTC().Format(time.RFC3339))

	for _, op := range run.Operations() {
		results := run.ByOperation(op)
		fastest := findFastest(results)

		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", op)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Client | Mean | Std Dev | Min | Median | P95 | Max "+
			"| Samples | Iterations | Relative |")
		fmt.Fprintln(w, "|--------|------|---------|-----|--------|-----|-----"+
			"|---------|------------|----------|")

		for _, r := range results {
			if !r.OK() {
				fmt.Fprintf(w, "| %s | - | - | - | - | - | - | - | - | %s |\n",
					r.Client, status(r))

				continue
			}

			relative := 1.0
			if fastest > 0 && r.Mean > 0 {
				relative = float64(r.Mean) / float64(fastest)
			}

			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %d | %d | %.2fx |\n",
				r.Client,
				formatDuration(r.Mean),
				formatDuration(r.StdDev),
				formatDuration(r.Min),
				formatDuration(r.Median),
				formatDuration(r.P95),
				formatDuration(r.Max),
				r.Samples,
				r.Iterations,
				relative,
			)
		}
	}

	var failures []harness.Result
	for _, r := range run.Results {
		if r.Error != "" && !r.Skipped {
			failures = append(failures, r)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Failures")
		fmt.Fprintln(w)

		for _, r := range failures {
			fmt.Fprintf(w, "- %s/%s: %s\n", r.Client, r.Operation, r.Error)
		}
	}

	return nil
}

// GenerateJSON writes run as JSON to w.
func GenerateJSON(w io.Writer, run *harness.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(run)
}

func status(r harness.Result) string {
	if r.Skipped {
		return "skipped"
	}

	return "failed"
}

func findFastest(results []harness.Result) time.Duration {
	var fastest time.Duration
	for _, r := range results {
		if r.OK() && r.Mean > 0 && (fastest == 0 || r.Mean < fastest) {
			fastest = r.Mean
		}
	}

	return fastest
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

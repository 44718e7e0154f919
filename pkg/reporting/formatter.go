package reporting

import (
	"fmt"
	"io"
	"strings"
)

// Formatter renders run summaries for the terminal.
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a formatter writing to out.
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{out: out}
}

// WriteSummary prints the per-trial table and campaign aggregates.
func (f *Formatter) WriteSummary(report *RunReport) {
	fmt.Fprintf(f.out, "\nBenchmark %s — %s (%d responders, fire weight %.2f)\n",
		report.RunID, report.Building, report.Responders, report.FireWeight)
	fmt.Fprintln(f.out, strings.Repeat("─", 72))
	fmt.Fprintf(f.out, "%-12s %8s %6s %6s %9s %7s %8s\n",
		"seed", "rescued", "dead", "total", "survival", "ticks", "replans")
	for _, t := range report.Trials {
		fmt.Fprintf(f.out, "%-12d %8d %6d %6d %8.1f%% %7d %8d\n",
			t.Seed, t.Rescued, t.Dead, t.TotalInitial,
			t.SurvivalRate*100, t.TimeTicks, t.ReplanCount)
	}
	fmt.Fprintln(f.out, strings.Repeat("─", 72))
	fmt.Fprintf(f.out, "trials: %d   mean survival: %.1f%%   duration: %s\n",
		len(report.Trials), report.MeanSurvival()*100, report.Duration)
}

package bench

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/domino14/connect4/stats"
)

const histogramBins = 15

type Summary struct {
	Cases      int
	Mismatches []Result
	Seconds    stats.Statistic
	Nodes      stats.Statistic
	// log10 of the node count of each case
	logNodes []float64
}

func Summarize(results []Result) *Summary {
	s := &Summary{Cases: len(results)}
	for _, r := range results {
		s.Seconds.Push(r.Seconds)
		s.Nodes.Push(float64(r.Nodes))
		s.logNodes = append(s.logNodes, math.Log10(float64(r.Nodes)+1))
	}
	s.Mismatches = lo.Filter(results, func(r Result, _ int) bool {
		return r.Mismatch
	})
	return s
}

// Fprint writes a human-readable report, with confidence intervals at the
// given level in percent.
func (s *Summary) Fprint(w io.Writer, confidence float64) error {
	fmt.Fprintf(w, "cases: %d, mismatches: %d\n", s.Cases, len(s.Mismatches))
	for _, m := range s.Mismatches {
		fmt.Fprintf(w, "  %s: got %d, want %d\n", m.Moves, m.Score, *m.Expected)
	}
	if s.Cases == 0 {
		return nil
	}
	fmt.Fprintf(w, "time per case: %.4fs ± %.4fs (min %.4fs, max %.4fs)\n",
		s.Seconds.Mean(), s.Seconds.ConfidenceInterval(confidence),
		s.Seconds.Min(), s.Seconds.Max())
	fmt.Fprintf(w, "nodes per case: %.0f ± %.0f (min %.0f, max %.0f)\n",
		s.Nodes.Mean(), s.Nodes.ConfidenceInterval(confidence),
		s.Nodes.Min(), s.Nodes.Max())
	fmt.Fprintf(w, "%.0f%% confidence intervals\n\n", confidence)
	fmt.Fprintln(w, "log10(nodes):")
	return histogram.Fprint(w, histogram.Hist(histogramBins, s.logNodes), histogram.Linear(40))
}

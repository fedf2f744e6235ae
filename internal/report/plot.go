package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/agreement.report/internal/metrics"
)

// ScoreSummary describes the distribution of pairwise overall scores.
type ScoreSummary struct {
	Pairs  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize collects the overall score of every measured pair into summary
// statistics for the run log.
func Summarize(scores *metrics.AllPairScores) ScoreSummary {
	values := overallScores(scores)
	if len(values) == 0 {
		return ScoreSummary{}
	}

	s := ScoreSummary{
		Pairs: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   values[0],
		Max:   values[0],
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// WriteHistogram plots the distribution of pairwise overall scores as a PNG.
// Histogram rendering goes straight to disk; gonum's Save does not take a
// writer, so this output bypasses the FileSystem abstraction.
func (m *Materializer) WriteHistogram(scores *metrics.AllPairScores, trader string) (string, error) {
	values := overallScores(scores)
	if len(values) == 0 {
		return "", nil
	}

	pts := make(plotter.Values, len(values))
	copy(pts, values)

	p := plot.New()
	p.Title.Text = "Pairwise overall agreement"
	if trader != "" {
		p.Title.Text = fmt.Sprintf("Pairwise overall agreement (%s)", trader)
	}
	p.X.Label.Text = "agreement"
	p.Y.Label.Text = "pairs"
	p.X.Min = 0
	p.X.Max = 1

	bins := 20
	if len(values) < bins {
		bins = len(values)
	}
	h, err := plotter.NewHist(pts, bins)
	if err != nil {
		return "", fmt.Errorf("build histogram: %w", err)
	}
	p.Add(h)

	name := "scores_Total.png"
	if trader != "" {
		name = "scores_" + trader + ".png"
	}
	dir := filepath.Join(m.OutputDir, "overall_agreement")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save histogram: %w", err)
	}
	return path, nil
}

func overallScores(scores *metrics.AllPairScores) []float64 {
	var values []float64
	for _, primary := range scores.Annotators {
		for _, secondary := range scores.Annotators {
			if primary == secondary {
				continue
			}
			if pair := scores.Get(primary, secondary); pair != nil {
				values = append(values, pair.Overall)
			}
		}
	}
	return values
}

package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/agreement.report/internal/metrics"
)

// WriteHeatmap renders the overall agreement matrix as a standalone HTML
// heatmap next to the CSV tree. Ground truth is kept as an axis entry here,
// unlike the CSV matrix, because the visual is for eyeballing outliers.
func (m *Materializer) WriteHeatmap(scores *metrics.AllPairScores, trader string) (string, error) {
	axis := scores.Annotators

	var data []opts.HeatMapData
	for i, primary := range axis {
		for j, secondary := range axis {
			if primary == secondary {
				continue
			}
			pair := scores.Get(primary, secondary)
			if pair == nil {
				continue
			}
			data = append(data, opts.HeatMapData{
				Value: [3]interface{}{i, j, pair.Overall},
			})
		}
	}

	title := "Pairwise agreement"
	if trader != "" {
		title = fmt.Sprintf("Pairwise agreement (%s)", trader)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      axis,
			AxisLabel: &opts.AxisLabel{Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category",
			Data: axis,
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	hm.AddSeries("agreement", data)

	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		return "", fmt.Errorf("render heatmap: %w", err)
	}

	name := "heatmap_Total.html"
	if trader != "" {
		name = "heatmap_" + trader + ".html"
	}
	dir := filepath.Join(m.OutputDir, "overall_agreement")
	if err := m.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := m.FS.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write heatmap: %w", err)
	}
	return path, nil
}

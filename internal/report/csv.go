// Package report materializes aggregated agreement scores into the CSV
// report tree, plus heatmap and histogram artifacts. It contains no
// matching logic; everything here is presentation of metrics results.
package report

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/agreement.report/internal/fsutil"
	"github.com/banshee-data/agreement.report/internal/metrics"
	"github.com/banshee-data/agreement.report/internal/trade"
)

// TotalTrader labels rows aggregated across all traders.
const TotalTrader = "Total"

// Materializer writes the CSV report tree for one output directory:
//
//	overall_agreement/
//	agreement_per_field/common_{bool}/
//	agreement_per_field/gt_breakdown_common_{bool}/
//	agreement_per_label/common_{bool}/
//	agreement_per_label/gt_counts_common_{bool}/
type Materializer struct {
	FS        fsutil.FileSystem
	OutputDir string

	// Precision is the number of decimals for score columns (default 3).
	Precision int
}

// NewMaterializer returns a materializer writing through the OS filesystem.
func NewMaterializer(outputDir string) *Materializer {
	return &Materializer{FS: fsutil.OSFileSystem{}, OutputDir: outputDir, Precision: 3}
}

func (m *Materializer) precision() int {
	if m.Precision <= 0 {
		return 3
	}
	return m.Precision
}

func (m *Materializer) formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', m.precision(), 64)
}

// formatCount renders raw tallies without forced decimals.
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (m *Materializer) writeCSV(dir, filename string, header []string, rows [][]string) (string, error) {
	if err := m.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	f, err := m.FS.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// traderFilename names the per-trader report file; trader == "" selects the
// dataset-wide total.
func traderFilename(trader string) string {
	if trader == "" {
		return "Total_agreement.csv"
	}
	return "agreement_" + trader + ".csv"
}

// WriteOverall writes the overall agreement matrix: one row per annotator,
// one column per counterpart (ground truth is compared as a row source but
// never shown as a column), plus the row mean, the annotator's task count,
// and the trader. Pairs with no common tasks stay blank: no data means no
// measurement, not zero agreement.
func (m *Materializer) WriteOverall(scores *metrics.AllPairScores, tasks []metrics.Task, trader string) (string, error) {
	var cols []string
	for _, a := range scores.Annotators {
		if a != metrics.GroundTruth {
			cols = append(cols, a)
		}
	}

	header := append([]string{"annotator"}, cols...)
	header = append(header, "mean_agreement", "num_tasks", "trader")

	traderValue := trader
	if traderValue == "" {
		traderValue = TotalTrader
	}

	var rows [][]string
	for _, a := range cols {
		row := []string{a}
		var measured []float64
		for _, b := range cols {
			pair := scores.Get(a, b)
			if pair == nil {
				row = append(row, "")
				continue
			}
			row = append(row, m.formatScore(pair.Overall))
			measured = append(measured, pair.Overall)
		}
		mean := ""
		if len(measured) > 0 {
			mean = m.formatScore(stat.Mean(measured, nil))
		}
		row = append(row, mean,
			strconv.Itoa(metrics.CountTasksFor(tasks, a)),
			traderValue)
		rows = append(rows, row)
	}

	return m.writeCSV(filepath.Join(m.OutputDir, "overall_agreement"), traderFilename(trader), header, rows)
}

// pairRow is one materialized (primary, secondary) row with its metadata.
type pairRow struct {
	primary, secondary string
	values             map[string]float64
	primTasks          int
	commonTasks        int
}

func (m *Materializer) pairRows(scores *metrics.AllPairScores, tasks []metrics.Task, common bool,
	extract func(*metrics.AggregatedScores) map[string]float64) []pairRow {

	var rows []pairRow
	for _, primary := range scores.Annotators {
		primTasks := metrics.CountTasksFor(tasks, primary)
		for _, secondary := range scores.Annotators {
			if secondary == primary {
				continue
			}
			row := pairRow{
				primary:     primary,
				secondary:   secondary,
				primTasks:   primTasks,
				commonTasks: metrics.CountCommonTasks(tasks, primary, secondary, common),
			}
			if pair := scores.Get(primary, secondary); pair != nil {
				row.values = extract(pair)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (m *Materializer) tabulate(columns []string, rows []pairRow, trader string, format func(float64) string) ([]string, [][]string) {
	header := append(append([]string{}, columns...),
		"primary_annotator", "secondary_annotator", "prim_annot_tasks", "common_tasks", "trader")

	traderValue := trader
	if traderValue == "" {
		traderValue = TotalTrader
	}

	var out [][]string
	for _, row := range rows {
		record := make([]string, 0, len(header))
		for _, col := range columns {
			record = append(record, format(row.values[col]))
		}
		record = append(record, row.primary, row.secondary,
			strconv.Itoa(row.primTasks), strconv.Itoa(row.commonTasks), traderValue)
		out = append(out, record)
	}
	return header, out
}

// WritePerField writes the per-field agreement CSV and the derived
// ground-truth breakdown view.
func (m *Materializer) WritePerField(scores *metrics.AllPairScores, tasks []metrics.Task, trader string, common bool) ([]string, error) {
	rows := m.pairRows(scores, tasks, common, func(s *metrics.AggregatedScores) map[string]float64 {
		return s.PerField
	})

	header, records := m.tabulate(trade.FieldColumns, rows, trader, m.formatScore)
	dir := filepath.Join(m.OutputDir, "agreement_per_field", fmt.Sprintf("common_%t", common))
	path, err := m.writeCSV(dir, traderFilename(trader), header, records)
	if err != nil {
		return nil, err
	}

	gtPath, err := m.writeGTBreakdown(rows, trader, common)
	if err != nil {
		return nil, err
	}
	return []string{path, gtPath}, nil
}

// writeGTBreakdown rescales the ground-truth rows of the per-field table
// back to per-field units (undoing the 1/5 normalization) and appends the
// mean contribution across fields.
func (m *Materializer) writeGTBreakdown(rows []pairRow, trader string, common bool) (string, error) {
	var gtRows []pairRow
	for _, row := range rows {
		if row.secondary != metrics.GroundTruth {
			continue
		}
		scaled := pairRow{
			primary:     row.primary,
			secondary:   row.secondary,
			primTasks:   row.primTasks,
			commonTasks: row.commonTasks,
			values:      make(map[string]float64, len(row.values)+1),
		}
		var contribs []float64
		for _, col := range trade.FieldColumns {
			v := row.values[col] * trade.SimilarityFieldsCount
			scaled.values[col] = v
			contribs = append(contribs, v)
		}
		scaled.values["sum_contrib"] = stat.Mean(contribs, nil)
		gtRows = append(gtRows, scaled)
	}

	columns := append(append([]string{}, trade.FieldColumns...), "sum_contrib")
	header, records := m.tabulate(columns, gtRows, trader, m.formatScore)
	dir := filepath.Join(m.OutputDir, "agreement_per_field", fmt.Sprintf("gt_breakdown_common_%t", common))
	return m.writeCSV(dir, traderFilename(trader), header, records)
}

// WritePerLabel writes the per-label ratio CSV and the derived ground-truth
// raw-counts view. Columns cover the full label-key vocabulary so the CSV
// schema is stable even when a label never occurred.
func (m *Materializer) WritePerLabel(scores *metrics.AllPairScores, tasks []metrics.Task, trader string, common bool) ([]string, error) {
	ratioRows := m.pairRows(scores, tasks, common, func(s *metrics.AggregatedScores) map[string]float64 {
		return s.PerLabelRatios
	})
	header, records := m.tabulate(trade.AllLabelKeys, ratioRows, trader, m.formatScore)
	dir := filepath.Join(m.OutputDir, "agreement_per_label", fmt.Sprintf("common_%t", common))
	path, err := m.writeCSV(dir, traderFilename(trader), header, records)
	if err != nil {
		return nil, err
	}

	countRows := m.pairRows(scores, tasks, common, func(s *metrics.AggregatedScores) map[string]float64 {
		return s.PerLabelCounts
	})
	var gtRows []pairRow
	for _, row := range countRows {
		if row.secondary == metrics.GroundTruth {
			gtRows = append(gtRows, row)
		}
	}
	countHeader, countRecords := m.tabulate(trade.AllLabelKeys, gtRows, trader, formatCount)
	countDir := filepath.Join(m.OutputDir, "agreement_per_label", fmt.Sprintf("gt_counts_common_%t", common))
	countPath, err := m.writeCSV(countDir, traderFilename(trader), countHeader, countRecords)
	if err != nil {
		return nil, err
	}
	return []string{path, countPath}, nil
}

// Package pipeline orchestrates a full metrics run: load the export,
// compute pairwise agreement, and materialize every report file. All
// agreement shapes come from one matching pass per annotator pair; the
// report writers only reslice the cached scores.
package pipeline

import (
	"fmt"

	"github.com/banshee-data/agreement.report/internal/loader"
	"github.com/banshee-data/agreement.report/internal/metrics"
	"github.com/banshee-data/agreement.report/internal/monitoring"
	"github.com/banshee-data/agreement.report/internal/report"
	"github.com/banshee-data/agreement.report/internal/store"
)

// Options configures one pipeline run.
type Options struct {
	// DataPath is the JSONL export to score.
	DataPath string

	// ConfigPath points at the reviewer exclusion config; empty means the
	// default search locations.
	ConfigPath string

	// OutputDir receives the report tree; empty means {base_name}_metrics
	// next to the working directory.
	OutputDir string

	// PerTrader splits the dataset by trader and computes both common modes
	// per trader. When false only the dataset-wide overall matrix is
	// produced.
	PerTrader bool

	// Common restricts the whole-dataset run to commonly-annotated tasks.
	// Per-trader runs always produce both modes.
	Common bool

	// Case restricts which report families are written: "overall", "field",
	// "label", or "" for all of them.
	Case string

	// Heatmap additionally renders an HTML heatmap per overall matrix.
	Heatmap bool

	// Histogram additionally renders a score distribution PNG per overall
	// matrix.
	Histogram bool

	// DBPath, when set, persists each run's scores to SQLite.
	DBPath string

	// Workers bounds pair computation concurrency; zero means GOMAXPROCS.
	Workers int
}

// Pipeline wires the loader, calculator, report writers, and optional run
// store together.
type Pipeline struct {
	opts   Options
	loader *loader.Loader
	writer *report.Materializer
	runs   *store.RunStore
	db     *store.DB
}

// New builds a pipeline for the given options.
func New(opts Options) (*Pipeline, error) {
	switch opts.Case {
	case "", "overall", "field", "label":
	default:
		return nil, fmt.Errorf("unknown case %q (want overall, field, or label)", opts.Case)
	}

	l := loader.New(opts.DataPath, opts.ConfigPath)

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = l.BaseName() + "_metrics"
	}

	p := &Pipeline{
		opts:   opts,
		loader: l,
		writer: report.NewMaterializer(outputDir),
	}

	if opts.DBPath != "" {
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return nil, err
		}
		p.db = db
		p.runs = store.NewRunStore(db)
	}
	return p, nil
}

// Close releases the run store, if open.
func (p *Pipeline) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Run executes the pipeline: one computation pass per (trader, common mode)
// slice, then all report files from the cached scores.
func (p *Pipeline) Run() error {
	tasks, err := p.loader.Load()
	if err != nil {
		return err
	}
	annotators, err := p.loader.Annotators()
	if err != nil {
		return err
	}
	if len(annotators) == 0 {
		return fmt.Errorf("no annotator columns in %s", p.opts.DataPath)
	}

	if p.opts.PerTrader {
		return p.runPerTrader(tasks, annotators)
	}
	return p.runTotal(tasks, annotators)
}

// runTotal scores the whole dataset at once. Only the overall matrix is
// written; per-field and per-label views are a per-trader concern.
func (p *Pipeline) runTotal(tasks []metrics.Task, annotators []string) error {
	calc := metrics.NewPairwiseCalculator(p.opts.Common)
	calc.Workers = p.opts.Workers
	scores := calc.CalculateAllPairs(tasks, annotators)

	path, err := p.writer.WriteOverall(scores, tasks, "")
	if err != nil {
		return err
	}
	monitoring.Logf("wrote %s", path)

	if err := p.writeExtras(scores, ""); err != nil {
		return err
	}
	return p.persist(scores, "", p.opts.Common, len(tasks))
}

func (p *Pipeline) runPerTrader(tasks []metrics.Task, annotators []string) error {
	for _, trader := range metrics.Traders(tasks) {
		traderTasks := metrics.FilterByTrader(tasks, trader)
		if len(traderTasks) == 0 {
			continue
		}

		for _, common := range []bool{false, true} {
			calc := metrics.NewPairwiseCalculator(common)
			calc.Workers = p.opts.Workers
			scores := calc.CalculateAllPairs(traderTasks, annotators)

			if !common && p.wants("overall") {
				path, err := p.writer.WriteOverall(scores, traderTasks, trader)
				if err != nil {
					return err
				}
				monitoring.Logf("wrote %s", path)

				if err := p.writeExtras(scores, trader); err != nil {
					return err
				}
			}

			var paths []string
			if p.wants("field") {
				fieldPaths, err := p.writer.WritePerField(scores, traderTasks, trader, common)
				if err != nil {
					return err
				}
				paths = append(paths, fieldPaths...)
			}
			if p.wants("label") {
				labelPaths, err := p.writer.WritePerLabel(scores, traderTasks, trader, common)
				if err != nil {
					return err
				}
				paths = append(paths, labelPaths...)
			}
			for _, path := range paths {
				monitoring.Logf("wrote %s", path)
			}

			if err := p.persist(scores, trader, common, len(traderTasks)); err != nil {
				return err
			}
		}
	}
	return nil
}

// wants reports whether a report family is selected by the -case filter.
func (p *Pipeline) wants(family string) bool {
	return p.opts.Case == "" || p.opts.Case == family
}

func (p *Pipeline) writeExtras(scores *metrics.AllPairScores, trader string) error {
	if p.opts.Heatmap {
		path, err := p.writer.WriteHeatmap(scores, trader)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %s", path)
	}
	if p.opts.Histogram {
		path, err := p.writer.WriteHistogram(scores, trader)
		if err != nil {
			return err
		}
		if path != "" {
			monitoring.Logf("wrote %s", path)
		}
		summary := report.Summarize(scores)
		if summary.Pairs > 0 {
			monitoring.Logf("scores: pairs=%d mean=%.3f stddev=%.3f min=%.3f max=%.3f",
				summary.Pairs, summary.Mean, summary.StdDev, summary.Min, summary.Max)
		}
	}
	return nil
}

func (p *Pipeline) persist(scores *metrics.AllPairScores, trader string, common bool, numTasks int) error {
	if p.runs == nil {
		return nil
	}
	runID, err := p.runs.InsertRun(&store.Run{
		Project:  p.loader.BaseName(),
		Trader:   trader,
		Common:   common,
		NumTasks: numTasks,
	})
	if err != nil {
		return err
	}
	return p.runs.InsertScores(runID, scores)
}

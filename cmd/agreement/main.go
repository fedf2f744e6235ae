// Command agreement computes inter-annotator agreement metrics over a
// trade-annotation JSONL export and materializes the CSV report tree.
//
// Usage:
//
//	agreement -data export.jsonl -per-trader
//	agreement -data export.jsonl -out reports/ -db runs.db -heatmap
//	agreement -data export.jsonl -reviewer alice@example.com
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/agreement.report/internal/loader"
	"github.com/banshee-data/agreement.report/internal/pipeline"
	"github.com/banshee-data/agreement.report/internal/reviewer"
)

func main() {
	var (
		dataPath      = flag.String("data", "", "path to the JSONL annotation export (required)")
		outputDir     = flag.String("out", "", "output directory (default {export}_metrics)")
		configPath    = flag.String("reviewer-config", "", "reviewer exclusion config (default search: ./reviewer_config.json, app/data/)")
		caseFilter    = flag.String("case", "", "restrict reports to one family: overall, field, or label (default all)")
		perTrader     = flag.Bool("per-trader", false, "generate separate reports for each trader")
		common        = flag.Bool("common", false, "compare only on commonly-annotated tasks (whole-dataset mode)")
		dbPath        = flag.String("db", "", "persist run scores to this SQLite database")
		heatmap       = flag.Bool("heatmap", false, "render an HTML agreement heatmap per overall matrix")
		histogram     = flag.Bool("histogram", false, "render a score distribution PNG per overall matrix")
		workers       = flag.Int("workers", 0, "concurrent pair computations (0 = GOMAXPROCS)")
		reviewerEmail = flag.String("reviewer", "", "compute error frequency for this reviewer instead of agreement reports")
		gtVerifierCSV = flag.String("gt-verifiers", "", "comma-separated ground-truth verifier emails to track (reviewer mode)")
	)
	flag.Parse()

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "error: -data is required")
		flag.Usage()
		os.Exit(2)
	}

	if *reviewerEmail != "" {
		if err := runReviewer(*dataPath, *configPath, *reviewerEmail, *gtVerifierCSV); err != nil {
			log.Fatalf("reviewer analysis failed: %v", err)
		}
		return
	}

	p, err := pipeline.New(pipeline.Options{
		DataPath:   *dataPath,
		ConfigPath: *configPath,
		OutputDir:  *outputDir,
		PerTrader:  *perTrader,
		Common:     *common,
		Case:       *caseFilter,
		Heatmap:    *heatmap,
		Histogram:  *histogram,
		DBPath:     *dbPath,
		Workers:    *workers,
	})
	if err != nil {
		log.Fatalf("pipeline setup failed: %v", err)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}
}

func runReviewer(dataPath, configPath, email, gtVerifierCSV string) error {
	l := loader.New(dataPath, configPath)
	tasks, err := l.Load()
	if err != nil {
		return err
	}

	var verifiers []string
	for _, v := range strings.Split(gtVerifierCSV, ",") {
		if v = strings.TrimSpace(v); v != "" {
			verifiers = append(verifiers, v)
		}
	}

	result := reviewer.CalculateErrorFrequency(tasks, email, l.BaseName(), verifiers)
	if result == nil {
		return fmt.Errorf("no tasks where %s overlaps ground truth", email)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

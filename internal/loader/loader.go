// Package loader reads annotation exports (JSONL) into tasks and discovers
// the annotator set, applying reviewer exclusion configuration.
package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/agreement.report/internal/metrics"
	"github.com/banshee-data/agreement.report/internal/monitoring"
	"github.com/banshee-data/agreement.report/internal/trade"
)

// reservedColumns are export columns that never hold annotations.
var reservedColumns = map[string]bool{
	"id":                  true,
	"trader":              true,
	"ground_truth_member": true,
	"num_annotations":     true,
}

// Loader reads one JSONL export and caches the parsed tasks and the
// discovered annotator list.
type Loader struct {
	DataPath   string
	ConfigPath string

	tasks      []metrics.Task
	annotators []string
	loaded     bool
}

// New returns a loader for the given JSONL export. configPath may be empty;
// reviewer exclusions are then looked up in the default locations.
func New(dataPath, configPath string) *Loader {
	return &Loader{DataPath: dataPath, ConfigPath: configPath}
}

// BaseName is the export file name without directory or extension, used as
// the project name for reviewer exclusions and output directories.
func (l *Loader) BaseName() string {
	base := filepath.Base(l.DataPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load parses the JSONL export. Rows with num_annotations == 0 are dropped.
// Each remaining row becomes one task; annotator columns decode lazily into
// raw annotation lists, with null columns recorded as absent.
func (l *Loader) Load() ([]metrics.Task, error) {
	if l.loaded {
		return l.tasks, nil
	}

	f, err := os.Open(l.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	annotatorSeen := make(map[string]bool)
	var tasks []metrics.Task

	scanner := bufio.NewScanner(f)
	// Exports carry full annotation payloads per row; allow long lines.
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var row map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNo, err)
		}

		task := metrics.Task{
			Annotations: make(map[string][]trade.RawAnnotation),
		}
		if raw, ok := row["trader"]; ok {
			_ = json.Unmarshal(raw, &task.Trader)
		}
		if raw, ok := row["ground_truth_member"]; ok {
			_ = json.Unmarshal(raw, &task.GroundTruthMember)
		}
		if raw, ok := row["num_annotations"]; ok {
			_ = json.Unmarshal(raw, &task.NumAnnotations)
		}
		if task.NumAnnotations == 0 {
			continue
		}

		for col, raw := range row {
			if reservedColumns[col] || !isAnnotatorColumn(col) {
				continue
			}
			annotatorSeen[col] = true
			if string(raw) == "null" {
				continue
			}
			var annotations []trade.RawAnnotation
			if err := json.Unmarshal(raw, &annotations); err != nil {
				monitoring.Logf("line %d: unreadable %q column: %v", lineNo, col, err)
				continue
			}
			if annotations == nil {
				annotations = []trade.RawAnnotation{}
			}
			task.Annotations[col] = annotations
		}

		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	l.tasks = tasks
	l.annotators = l.buildAnnotators(annotatorSeen)
	l.loaded = true
	return tasks, nil
}

// Annotators returns the annotator identifiers present in the export:
// email columns first (sorted), then predictions and ground_truth when
// present. Annotators excluded by the reviewer config are omitted.
func (l *Loader) Annotators() ([]string, error) {
	if !l.loaded {
		if _, err := l.Load(); err != nil {
			return nil, err
		}
	}
	return l.annotators, nil
}

func (l *Loader) buildAnnotators(seen map[string]bool) []string {
	excluded := make(map[string]bool)
	for _, email := range ExcludedAnnotators(l.BaseName(), l.ConfigPath) {
		excluded[email] = true
	}

	var emails []string
	for col := range seen {
		if strings.Contains(col, "@") && !excluded[col] {
			emails = append(emails, col)
		}
	}
	sort.Strings(emails)

	annotators := emails
	for _, special := range []string{metrics.Predictions, metrics.GroundTruth} {
		if seen[special] {
			annotators = append(annotators, special)
		}
	}
	return annotators
}

func isAnnotatorColumn(col string) bool {
	return strings.Contains(col, "@") || col == metrics.Predictions || col == metrics.GroundTruth
}

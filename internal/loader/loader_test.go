package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/agreement.report/internal/metrics"
)

func writeExport(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signal_export.jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeExport(t,
		`{"id": 1, "trader": "alpha", "num_annotations": 2, "ground_truth_member": "a@x.com", "a@x.com": [{"direction": "Long"}], "b@x.com": null, "ground_truth": [{"direction": "Long"}]}`,
		`{"id": 2, "trader": "beta", "num_annotations": 0, "a@x.com": [{"direction": "Short"}]}`,
		`{"id": 3, "trader": "beta", "num_annotations": 1, "b@x.com": []}`,
	)

	l := New(path, filepath.Join(t.TempDir(), "missing.json"))
	tasks, err := l.Load()
	if err != nil {
		t.Fatal(err)
	}

	// Row 2 is dropped: zero annotations.
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}

	first := tasks[0]
	if first.Trader != "alpha" || first.GroundTruthMember != "a@x.com" {
		t.Errorf("task metadata = %+v", first)
	}
	if !first.Has("a@x.com") || !first.Has("ground_truth") {
		t.Error("non-null columns should be present")
	}
	if first.Has("b@x.com") {
		t.Error("null column should be absent, not empty")
	}
	if len(first.Annotations["a@x.com"]) != 1 || first.Annotations["a@x.com"][0].Direction != "Long" {
		t.Errorf("annotations = %+v", first.Annotations["a@x.com"])
	}

	second := tasks[1]
	if !second.Has("b@x.com") {
		t.Error("empty list column should be present")
	}
	if len(second.Annotations["b@x.com"]) != 0 {
		t.Errorf("annotations = %+v", second.Annotations["b@x.com"])
	}
}

func TestAnnotatorsOrdering(t *testing.T) {
	path := writeExport(t,
		`{"num_annotations": 1, "zed@x.com": [], "ann@x.com": [], "ground_truth": [], "predictions": []}`,
	)

	l := New(path, filepath.Join(t.TempDir(), "missing.json"))
	annotators, err := l.Annotators()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"ann@x.com", "zed@x.com", metrics.Predictions, metrics.GroundTruth}
	if diff := cmp.Diff(want, annotators); diff != "" {
		t.Errorf("annotator order mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotatorsAppliesExclusions(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "reviewer_config.json")
	cfg := `{"global_exclusions": ["bad@x.com"], "project_reviewers": {"signal_export": ["reviewer@x.com"]}}`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	path := writeExport(t,
		`{"num_annotations": 1, "good@x.com": [], "bad@x.com": [], "reviewer@x.com": []}`,
	)

	l := New(path, cfgPath)
	annotators, err := l.Annotators()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"good@x.com"}
	if diff := cmp.Diff(want, annotators); diff != "" {
		t.Errorf("exclusions not applied (-want +got):\n%s", diff)
	}
}

func TestBaseName(t *testing.T) {
	l := New("/data/exports/trade_signal_b.jsonl", "")
	if got := l.BaseName(); got != "trade_signal_b" {
		t.Errorf("BaseName = %q", got)
	}
}

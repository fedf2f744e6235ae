package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReviewerConfigMissingFile(t *testing.T) {
	cfg, err := LoadReviewerConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.GlobalExclusions) != 0 || len(cfg.ProjectReviewers) != 0 {
		t.Errorf("missing file should yield empty config, got %+v", cfg)
	}
}

func TestExcludedAnnotatorsStripsMetricsSuffix(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.json")
	cfg := `{"global_exclusions": ["g@x.com"], "project_reviewers": {"export": ["p@x.com", "g@x.com"]}}`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	excluded := ExcludedAnnotators("export_metrics", cfgPath)
	if len(excluded) != 2 {
		t.Fatalf("got %v, want deduplicated [g@x.com p@x.com]", excluded)
	}
	if excluded[0] != "g@x.com" || excluded[1] != "p@x.com" {
		t.Errorf("excluded = %v", excluded)
	}
}

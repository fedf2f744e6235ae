package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func writeExport(t *testing.T, dir string) string {
	t.Helper()
	lines := `{"trader": "alpha", "num_annotations": 2, "a@x.com": [{"label_type": "action", "asset_reference_type": "Majors", "direction": "Long"}], "b@x.com": [{"label_type": "action", "asset_reference_type": "Majors", "direction": "Long"}]}
{"trader": "beta", "num_annotations": 2, "a@x.com": [{"label_type": "action", "asset_reference_type": "Majors", "direction": "Short"}], "b@x.com": [{"label_type": "action", "asset_reference_type": "Majors", "direction": "Long"}]}
`
	path := filepath.Join(dir, "export.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunTotal(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeExport(t, dir)
	outDir := filepath.Join(dir, "reports")

	p, err := New(Options{
		DataPath:   dataPath,
		ConfigPath: filepath.Join(dir, "missing.json"),
		OutputDir:  outDir,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	total := filepath.Join(outDir, "overall_agreement", "Total_agreement.csv")
	if _, err := os.Stat(total); err != nil {
		t.Errorf("missing %s: %v", total, err)
	}
}

func TestRunPerTraderWritesFullTree(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeExport(t, dir)
	outDir := filepath.Join(dir, "reports")

	p, err := New(Options{
		DataPath:   dataPath,
		ConfigPath: filepath.Join(dir, "missing.json"),
		OutputDir:  outDir,
		PerTrader:  true,
		DBPath:     filepath.Join(dir, "runs.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	for _, trader := range []string{"alpha", "beta"} {
		for _, want := range []string{
			filepath.Join(outDir, "overall_agreement", "agreement_"+trader+".csv"),
			filepath.Join(outDir, "agreement_per_field", "common_false", "agreement_"+trader+".csv"),
			filepath.Join(outDir, "agreement_per_field", "common_true", "agreement_"+trader+".csv"),
			filepath.Join(outDir, "agreement_per_label", "common_false", "agreement_"+trader+".csv"),
			filepath.Join(outDir, "agreement_per_label", "common_true", "agreement_"+trader+".csv"),
		} {
			if _, err := os.Stat(want); err != nil {
				t.Errorf("missing %s", want)
			}
		}
	}
}

func TestRunDefaultOutputDir(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeExport(t, dir)

	// Run from inside the temp dir so the default output lands there.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	p, err := New(Options{
		DataPath:   dataPath,
		ConfigPath: filepath.Join(dir, "missing.json"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "export_metrics", "overall_agreement", "Total_agreement.csv")); err != nil {
		t.Errorf("default output dir not used: %v", err)
	}
}

package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultReviewerConfig is the file name searched for reviewer exclusions.
const DefaultReviewerConfig = "reviewer_config.json"

// ReviewerConfig lists annotators to exclude from agreement computation:
// globally, or per project (keyed by export base name).
type ReviewerConfig struct {
	GlobalExclusions []string            `json:"global_exclusions"`
	ProjectReviewers map[string][]string `json:"project_reviewers"`
}

// LoadReviewerConfig reads a reviewer config file. With an empty path it
// searches the working directory and app/data/. A missing file yields an
// empty config, not an error: exclusions are optional.
func LoadReviewerConfig(path string) (*ReviewerConfig, error) {
	candidates := []string{path}
	if path == "" {
		candidates = []string{
			DefaultReviewerConfig,
			filepath.Join("app", "data", DefaultReviewerConfig),
		}
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Clean(candidate))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read reviewer config: %w", err)
		}
		var cfg ReviewerConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse reviewer config %s: %w", candidate, err)
		}
		return &cfg, nil
	}

	return &ReviewerConfig{}, nil
}

// ExcludedAnnotators returns the deduplicated exclusion list for a project:
// global exclusions plus the project's own reviewers. The project name may
// carry a _metrics suffix, which is stripped before lookup.
func ExcludedAnnotators(projectName, configPath string) []string {
	cfg, err := LoadReviewerConfig(configPath)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var excluded []string
	add := func(emails []string) {
		for _, email := range emails {
			if !seen[email] {
				seen[email] = true
				excluded = append(excluded, email)
			}
		}
	}

	add(cfg.GlobalExclusions)
	if projectName != "" {
		clean := strings.ReplaceAll(projectName, "_metrics", "")
		add(cfg.ProjectReviewers[clean])
	}

	sort.Strings(excluded)
	return excluded
}

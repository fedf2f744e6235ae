// Package reviewer measures reviewer quality: how often a reviewer's
// annotations differ from the ground truth, with per-trader breakdowns and
// ground-truth verifier coverage.
package reviewer

import (
	"sort"
	"strings"

	"github.com/banshee-data/agreement.report/internal/metrics"
	"github.com/banshee-data/agreement.report/internal/trade"
)

// TraderStats counts a reviewer's tasks and mismatches for one trader.
type TraderStats struct {
	Total     int     `json:"total"`
	Errors    int     `json:"errors"`
	Frequency float64 `json:"frequency"`
}

// VerifierStats tracks how much of one ground-truth verifier's work a
// reviewer covered.
type VerifierStats struct {
	TotalVerified      int `json:"total_verified"`
	ReviewedByReviewer int `json:"reviewed_by_reviewer"`
}

// ErrorFrequency is the result of reviewer error analysis: the share of
// ground-truth tasks where the reviewer's trades differ at all from the
// ground truth.
type ErrorFrequency struct {
	ProjectName     string                    `json:"project_name"`
	ReviewerEmail   string                    `json:"reviewer_email"`
	TotalTasks      int                       `json:"total_tasks"`
	TasksWithErrors int                       `json:"tasks_with_errors"`
	Frequency       float64                   `json:"error_frequency"`
	PerTrader       map[string]*TraderStats   `json:"per_trader"`
	ProjectTotal    int                       `json:"project_total_tasks"`
	GTVerifierStats map[string]*VerifierStats `json:"gt_verifier_stats,omitempty"`
}

// CalculateErrorFrequency compares a reviewer's annotations against ground
// truth on every task where both exist. Returns nil when the reviewer never
// overlaps ground truth: absence of evidence is not a perfect score.
func CalculateErrorFrequency(tasks []metrics.Task, reviewerEmail, projectName string, gtVerifiers []string) *ErrorFrequency {
	result := &ErrorFrequency{
		ProjectName:   projectName,
		ReviewerEmail: reviewerEmail,
		PerTrader:     make(map[string]*TraderStats),
		ProjectTotal:  len(tasks),
	}

	if len(gtVerifiers) > 0 {
		result.GTVerifierStats = make(map[string]*VerifierStats, len(gtVerifiers))
		for _, verifier := range gtVerifiers {
			stats := &VerifierStats{}
			for i := range tasks {
				t := &tasks[i]
				if t.GroundTruthMember != verifier {
					continue
				}
				stats.TotalVerified++
				if t.Has(reviewerEmail) && t.Has(metrics.GroundTruth) {
					stats.ReviewedByReviewer++
				}
			}
			result.GTVerifierStats[verifier] = stats
		}
	}

	for i := range tasks {
		t := &tasks[i]
		if !t.Has(reviewerEmail) || !t.Has(metrics.GroundTruth) {
			continue
		}

		trader := t.Trader
		if trader == "" {
			trader = "Unknown"
		}
		stats := result.PerTrader[trader]
		if stats == nil {
			stats = &TraderStats{}
			result.PerTrader[trader] = stats
		}

		reviewerTrades := trade.ValidateAndNormalize(t.Annotations[reviewerEmail])
		gtTrades := trade.ValidateAndNormalize(t.Annotations[metrics.GroundTruth])

		result.TotalTasks++
		stats.Total++
		if !annotationsMatch(reviewerTrades, gtTrades) {
			result.TasksWithErrors++
			stats.Errors++
		}
	}

	if result.TotalTasks == 0 {
		return nil
	}

	result.Frequency = float64(result.TasksWithErrors) / float64(result.TotalTasks)
	for _, stats := range result.PerTrader {
		if stats.Total > 0 {
			stats.Frequency = float64(stats.Errors) / float64(stats.Total)
		}
	}
	return result
}

// annotationsMatch reports whether two normalized trade sets are identical
// on the identity fields, after sorting both by a stable key. Optional task
// flags and remaining exposure do not participate, matching the review
// workflow's definition of a correction.
func annotationsMatch(a, b []trade.Trade) bool {
	if len(a) != len(b) {
		return false
	}

	keysA := tradeKeys(a)
	keysB := tradeKeys(b)
	for i := range keysA {
		if keysA[i] != keysB[i] {
			return false
		}
	}
	return true
}

func tradeKeys(trades []trade.Trade) []string {
	keys := make([]string, len(trades))
	for i := range trades {
		keys[i] = tradeKey(&trades[i])
	}
	sort.Strings(keys)
	return keys
}

func tradeKey(t *trade.Trade) string {
	assets := make([]string, len(t.SpecificAssets))
	copy(assets, t.SpecificAssets)
	sort.Strings(assets)

	return strings.Join([]string{
		t.AssetReferenceType,
		strings.Join(assets, "\x1f"),
		t.LabelType,
		t.Direction,
		t.ExposureChange,
		t.PositionStatus,
	}, "\x1e")
}

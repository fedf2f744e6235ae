// Package agreement implements the trade-matching and agreement-scoring
// engine: greedy matching of unordered trade sets within asset-reference
// groups, a single-pass similarity function feeding three metric shapes,
// and the per-task agreement calculator built on both.
package agreement

import "github.com/banshee-data/agreement.report/internal/trade"

// Similarity is the result of comparing one trade pair. All three metric
// shapes are computed together so that overall, per-field, and per-label
// statistics always derive from the same comparison.
type Similarity struct {
	// OverallScore is the 0-1 similarity across the five agreement fields.
	OverallScore float64

	// FieldScores maps each agreement field to its individual share of the
	// overall score; each value lies in [0, 0.2].
	FieldScores map[string]float64

	// LabelAgreements and LabelCounts tally, per label key, how often the
	// two trades agreed on a label and how often the label occurred at all.
	LabelAgreements map[string]int
	LabelCounts     map[string]int
}

// Compare computes all similarity metrics for a single trade pair in one
// pass. Missing field values compare as equal when absent on both sides.
func Compare(a, b *trade.Trade) Similarity {
	fieldScores := map[string]float64{
		trade.FieldStateType:         0,
		trade.FieldDirection:         0,
		trade.FieldExposureChange:    0,
		trade.FieldPositionStatus:    0,
		trade.FieldOptionalTaskFlags: 0,
	}
	labelAgreements := make(map[string]int, len(trade.AllLabelKeys))
	labelCounts := make(map[string]int, len(trade.AllLabelKeys))
	for _, key := range trade.AllLabelKeys {
		labelAgreements[key] = 0
		labelCounts[key] = 0
	}

	overall := 0.0

	if a.StateType == b.StateType {
		overall++
		fieldScores[trade.FieldStateType] = 1.0 / trade.SimilarityFieldsCount
	}
	if a.Direction == b.Direction {
		overall++
		fieldScores[trade.FieldDirection] = 1.0 / trade.SimilarityFieldsCount
	}
	if a.ExposureChange == b.ExposureChange {
		overall++
		fieldScores[trade.FieldExposureChange] = 1.0 / trade.SimilarityFieldsCount
	}
	if a.PositionStatus == b.PositionStatus {
		overall++
		fieldScores[trade.FieldPositionStatus] = 1.0 / trade.SimilarityFieldsCount
	}

	// Optional task flags score by overlap against the larger flag set, not
	// the union. Two empty sets agree fully; one-sided flags score zero.
	flagsA, flagsB := a.OptionalTaskFlags, b.OptionalTaskFlags
	switch {
	case len(flagsA) > 0 && len(flagsB) > 0:
		denom := len(flagsA)
		if len(flagsB) > denom {
			denom = len(flagsB)
		}
		flagScore := float64(intersectionSize(flagsA, flagsB)) / float64(denom)
		overall += flagScore
		fieldScores[trade.FieldOptionalTaskFlags] = flagScore / trade.SimilarityFieldsCount
	case len(flagsA) == 0 && len(flagsB) == 0:
		overall++
		fieldScores[trade.FieldOptionalTaskFlags] = 1.0 / trade.SimilarityFieldsCount
	}

	overall /= trade.SimilarityFieldsCount

	// Per-label tallies over the seven broader fields. A label counts once
	// per side that submitted it (shared labels count once), and agreements
	// only when both sides submitted the same label.
	for _, field := range trade.LabelFields {
		labelA := a.Label(field)
		labelB := b.Label(field)

		if labelA != "" {
			labelCounts[trade.LabelKey(labelA, field)]++
		}
		if labelB != "" && labelB != labelA {
			labelCounts[trade.LabelKey(labelB, field)]++
		}
		if labelA != "" && labelA == labelB {
			labelAgreements[trade.LabelKey(labelA, field)]++
		}
	}

	return Similarity{
		OverallScore:    overall,
		FieldScores:     fieldScores,
		LabelAgreements: labelAgreements,
		LabelCounts:     labelCounts,
	}
}

func intersectionSize(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	n := 0
	seen := make(map[string]bool, len(b))
	for _, v := range b {
		if set[v] && !seen[v] {
			seen[v] = true
			n++
		}
	}
	return n
}

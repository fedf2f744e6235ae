package agreement

import "github.com/banshee-data/agreement.report/internal/trade"

// Result is the complete agreement outcome for one task's pair of trade
// lists. Created fresh per comparison and consumed immediately by
// aggregation.
type Result struct {
	// Overall is the task-level agreement in [0, 1].
	Overall float64

	// PerField holds the weighted, match-averaged score per agreement field.
	PerField map[string]float64

	// LabelAgreements and LabelCounts are raw tallies summed across matches,
	// later converted to ratios at the aggregation step.
	LabelAgreements map[string]float64
	LabelCounts     map[string]float64

	NumMatches   int
	TradesACount int
	TradesBCount int
}

// Calculate scores two trade lists for one task, deriving all three metric
// shapes from a single matching pass. Degenerate inputs have defined
// sentinel outputs: two empty lists agree fully (an annotator submitting
// nothing is a valid state), while an asymmetric empty list scores zero.
func Calculate(tradesA, tradesB []trade.Trade) Result {
	switch {
	case len(tradesA) == 0 && len(tradesB) == 0:
		return Result{
			Overall:         1.0,
			PerField:        constFieldScores(1.0 / trade.SimilarityFieldsCount),
			LabelAgreements: map[string]float64{},
			LabelCounts:     map[string]float64{},
		}
	case len(tradesA) == 0:
		return Result{
			PerField:        constFieldScores(0),
			LabelAgreements: zeroLabelTallies(),
			LabelCounts:     zeroLabelTallies(),
			TradesBCount:    len(tradesB),
		}
	case len(tradesB) == 0:
		return Result{
			PerField:        constFieldScores(0),
			LabelAgreements: zeroLabelTallies(),
			LabelCounts:     zeroLabelTallies(),
			TradesACount:    len(tradesA),
		}
	}

	matches := MatchTradesByGroup(tradesA, tradesB, Compare)

	// Overall: matched pairs earn the primary-key credit plus a weighted
	// share of field similarity; unmatched trades implicitly contribute 0,
	// so agreement is penalized by count mismatch, not just field mismatch.
	total := 0.0
	for _, m := range matches {
		total += trade.PrimaryKeyWeight + trade.RemainingFieldsWeight*m.Sim.OverallScore
	}
	maxTrades := len(tradesA)
	if len(tradesB) > maxTrades {
		maxTrades = len(tradesB)
	}
	overall := total / float64(maxTrades)

	// Per-field: base credit plus weighted field score, averaged over
	// matches. Zero matches (with non-empty inputs) yields all-zero scores.
	perField := constFieldScores(0)
	if len(matches) > 0 {
		for _, m := range matches {
			for field, score := range m.Sim.FieldScores {
				perField[field] += trade.PerLabelBaseScore + trade.RemainingFieldsWeight*score
			}
		}
		for field := range perField {
			perField[field] /= float64(len(matches))
		}
	}

	// Per-label: unweighted tallies summed across matches.
	labelAgreements := zeroLabelTallies()
	labelCounts := zeroLabelTallies()
	for _, m := range matches {
		for key, v := range m.Sim.LabelAgreements {
			labelAgreements[key] += float64(v)
		}
		for key, v := range m.Sim.LabelCounts {
			labelCounts[key] += float64(v)
		}
	}

	return Result{
		Overall:         overall,
		PerField:        perField,
		LabelAgreements: labelAgreements,
		LabelCounts:     labelCounts,
		NumMatches:      len(matches),
		TradesACount:    len(tradesA),
		TradesBCount:    len(tradesB),
	}
}

func constFieldScores(v float64) map[string]float64 {
	scores := make(map[string]float64, len(trade.AgreementFields))
	for _, field := range trade.AgreementFields {
		scores[field] = v
	}
	return scores
}

func zeroLabelTallies() map[string]float64 {
	tallies := make(map[string]float64, len(trade.AllLabelKeys))
	for _, key := range trade.AllLabelKeys {
		tallies[key] = 0
	}
	return tallies
}

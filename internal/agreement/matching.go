package agreement

import (
	"sort"

	"github.com/banshee-data/agreement.report/internal/trade"
)

// SimilarityFunc scores one trade pair. The matcher only inspects
// OverallScore; the full Similarity rides along with the match so callers
// can extract every metric from a single matching pass.
type SimilarityFunc func(a, b *trade.Trade) Similarity

// Match is one accepted pairing between a trade from list A and a trade
// from list B, together with their similarity.
type Match struct {
	A   *trade.Trade
	B   *trade.Trade
	Sim Similarity
}

// findBestMatches computes the full |A|x|B| similarity matrix and greedily
// accepts pairs in descending overall-score order, never reusing a trade.
// At most min(|A|,|B|) matches result.
//
// Ties are broken deterministically: the pair with the lowest (row, column)
// index wins, via a stable sort over row-major pair order.
func findBestMatches(tradesA, tradesB []trade.Trade, sim SimilarityFunc) []Match {
	if len(tradesA) == 0 || len(tradesB) == 0 {
		return nil
	}

	type scoredPair struct {
		i, j int
		sim  Similarity
	}

	pairs := make([]scoredPair, 0, len(tradesA)*len(tradesB))
	for i := range tradesA {
		for j := range tradesB {
			pairs = append(pairs, scoredPair{i, j, sim(&tradesA[i], &tradesB[j])})
		}
	}

	sort.SliceStable(pairs, func(x, y int) bool {
		return pairs[x].sim.OverallScore > pairs[y].sim.OverallScore
	})

	usedA := make([]bool, len(tradesA))
	usedB := make([]bool, len(tradesB))
	var matches []Match
	for _, p := range pairs {
		if usedA[p.i] || usedB[p.j] {
			continue
		}
		usedA[p.i] = true
		usedB[p.j] = true
		matches = append(matches, Match{A: &tradesA[p.i], B: &tradesB[p.j], Sim: p.sim})
	}
	return matches
}

// MatchTradesByGroup groups both trade lists by primary key and matches
// within each group, so trades about different asset references never
// compete. One-sided groups produce no matches. Groups are visited in a
// deterministic key order.
func MatchTradesByGroup(tradesA, tradesB []trade.Trade, sim SimilarityFunc) []Match {
	groupedA := trade.GroupByKey(tradesA)
	groupedB := trade.GroupByKey(tradesB)

	keys := make([]trade.PrimaryKey, 0, len(groupedA)+len(groupedB))
	for key := range groupedA {
		keys = append(keys, key)
	}
	for key := range groupedB {
		if _, ok := groupedA[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(x, y int) bool {
		if keys[x].AssetReferenceType != keys[y].AssetReferenceType {
			return keys[x].AssetReferenceType < keys[y].AssetReferenceType
		}
		return keys[x].Assets < keys[y].Assets
	})

	var all []Match
	for _, key := range keys {
		all = append(all, findBestMatches(groupedA[key], groupedB[key], sim)...)
	}
	return all
}

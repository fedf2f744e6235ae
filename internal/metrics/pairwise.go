package metrics

import (
	"runtime"
	"sync"

	"github.com/banshee-data/agreement.report/internal/agreement"
	"github.com/banshee-data/agreement.report/internal/trade"
)

// AggregatedScores holds one annotator pair's agreement across all tasks of
// a dataset. Immutable after construction.
type AggregatedScores struct {
	// Overall is the mean per-task agreement.
	Overall float64

	// PerField is the mean per-task score for each agreement field.
	PerField map[string]float64

	// PerLabelRatios maps each label key to summed agreements over summed
	// counts (0 when the label never occurred).
	PerLabelRatios map[string]float64

	// PerLabelCounts retains the raw summed agreement tallies for the
	// ground-truth counts report.
	PerLabelCounts map[string]float64

	// NumTasks is the number of tasks that contributed to the aggregate.
	NumTasks int
}

// AllPairScores holds the aggregated scores for every ordered annotator
// pair. Self-pairs and pairs with no common tasks are nil.
type AllPairScores struct {
	Scores     map[string]map[string]*AggregatedScores
	Annotators []string
}

// Get returns the aggregated scores for an ordered pair, or nil.
func (s *AllPairScores) Get(primary, secondary string) *AggregatedScores {
	inner, ok := s.Scores[primary]
	if !ok {
		return nil
	}
	return inner[secondary]
}

// PairwiseCalculator computes agreement between every ordered pair of
// annotators. All three metric shapes come from one matching pass per task.
type PairwiseCalculator struct {
	// Common compares annotators only on commonly-annotated tasks and
	// disables the ground-truth authorship exclusion.
	Common bool

	// Workers bounds the number of concurrent pair computations; zero means
	// GOMAXPROCS. Pair computations are independent and CPU-bound.
	Workers int
}

// NewPairwiseCalculator returns a calculator with the default worker count.
func NewPairwiseCalculator(common bool) *PairwiseCalculator {
	return &PairwiseCalculator{Common: common}
}

type pairJob struct {
	primary, secondary string
}

// CalculateAllPairs computes aggregated scores for every ordered pair of
// distinct annotators, fanning pairs out across a bounded worker pool.
func (c *PairwiseCalculator) CalculateAllPairs(tasks []Task, annotators []string) *AllPairScores {
	scores := make(map[string]map[string]*AggregatedScores, len(annotators))
	for _, a := range annotators {
		scores[a] = make(map[string]*AggregatedScores, len(annotators))
		for _, b := range annotators {
			scores[a][b] = nil
		}
	}

	jobs := make(chan pairJob)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := c.CalculatePair(tasks, job.primary, job.secondary)
				mu.Lock()
				scores[job.primary][job.secondary] = result
				mu.Unlock()
			}
		}()
	}

	for _, a := range annotators {
		for _, b := range annotators {
			if a == b {
				continue
			}
			jobs <- pairJob{primary: a, secondary: b}
		}
	}
	close(jobs)
	wg.Wait()

	return &AllPairScores{Scores: scores, Annotators: annotators}
}

// CalculatePair computes aggregated agreement between two annotators.
// Returns nil when the pair shares no tasks: missing data, not measured
// disagreement.
func (c *PairwiseCalculator) CalculatePair(tasks []Task, primary, secondary string) *AggregatedScores {
	var results []agreement.Result

	for i := range tasks {
		t := &tasks[i]
		if !t.Has(primary) || !t.Has(secondary) {
			continue
		}
		// An annotator cannot be scored against ground truth they authored.
		// Common mode skips the exclusion entirely.
		if !c.Common && (primary == GroundTruth || secondary == GroundTruth) {
			if t.GroundTruthMember == primary || t.GroundTruthMember == secondary {
				continue
			}
		}

		tradesA := trade.ValidateAndNormalize(t.Annotations[primary])
		tradesB := trade.ValidateAndNormalize(t.Annotations[secondary])
		results = append(results, agreement.Calculate(tradesA, tradesB))
	}

	if len(results) == 0 {
		return nil
	}
	return aggregateTaskResults(results)
}

// aggregateTaskResults folds per-task results into one pair summary:
// simple mean for overall, per-field means, and label count sums converted
// to ratios only at this final step.
func aggregateTaskResults(results []agreement.Result) *AggregatedScores {
	n := float64(len(results))

	overall := 0.0
	perField := make(map[string]float64, len(trade.AgreementFields))
	for _, field := range trade.AgreementFields {
		perField[field] = 0
	}
	totalAgreements := make(map[string]float64, len(trade.AllLabelKeys))
	totalCounts := make(map[string]float64, len(trade.AllLabelKeys))
	for _, key := range trade.AllLabelKeys {
		totalAgreements[key] = 0
		totalCounts[key] = 0
	}

	for _, r := range results {
		overall += r.Overall
		for field, v := range r.PerField {
			perField[field] += v
		}
		for key, v := range r.LabelAgreements {
			totalAgreements[key] += v
		}
		for key, v := range r.LabelCounts {
			totalCounts[key] += v
		}
	}

	overall /= n
	for field := range perField {
		perField[field] /= n
	}

	ratios := make(map[string]float64, len(trade.AllLabelKeys))
	for _, key := range trade.AllLabelKeys {
		if totalCounts[key] > 0 {
			ratios[key] = totalAgreements[key] / totalCounts[key]
		} else {
			ratios[key] = 0
		}
	}

	return &AggregatedScores{
		Overall:        overall,
		PerField:       perField,
		PerLabelRatios: ratios,
		PerLabelCounts: totalAgreements,
		NumTasks:       len(results),
	}
}

// Package metrics orchestrates agreement computation across annotator pairs
// and tasks, and aggregates per-task results into per-pair summaries.
package metrics

import "github.com/banshee-data/agreement.report/internal/trade"

// Task is one unit of annotation work (e.g. one chat message), holding each
// annotator's raw annotation list. An annotator key that is absent from
// Annotations corresponds to a null column in the source export: the
// annotator never saw the task. A present key with an empty list means the
// annotator saw the task and submitted no trades.
type Task struct {
	Trader            string
	GroundTruthMember string
	NumAnnotations    int
	Annotations       map[string][]trade.RawAnnotation
}

// Has reports whether the annotator's column is non-null for this task.
func (t *Task) Has(annotator string) bool {
	_, ok := t.Annotations[annotator]
	return ok
}

// GroundTruth is the annotator key holding the verified reference
// annotation; Predictions holds the model's output. Both are compared like
// any human annotator.
const (
	GroundTruth = "ground_truth"
	Predictions = "predictions"
)

// CountTasksFor returns how many tasks have a non-null column for the
// annotator.
func CountTasksFor(tasks []Task, annotator string) int {
	n := 0
	for i := range tasks {
		if tasks[i].Has(annotator) {
			n++
		}
	}
	return n
}

// CountCommonTasks returns how many tasks both annotators saw. When the
// secondary annotator is the ground truth and common mode is off, tasks
// whose ground truth was authored by the primary annotator are excluded,
// matching the report column semantics.
func CountCommonTasks(tasks []Task, primary, secondary string, common bool) int {
	n := 0
	for i := range tasks {
		t := &tasks[i]
		if !t.Has(primary) || !t.Has(secondary) {
			continue
		}
		if secondary == GroundTruth && !common && t.GroundTruthMember == primary {
			continue
		}
		n++
	}
	return n
}

// FilterByTrader returns the tasks belonging to one trader.
func FilterByTrader(tasks []Task, trader string) []Task {
	var out []Task
	for i := range tasks {
		if tasks[i].Trader == trader {
			out = append(out, tasks[i])
		}
	}
	return out
}

// Traders returns the distinct trader names in first-seen order.
func Traders(tasks []Task) []string {
	seen := make(map[string]bool)
	var traders []string
	for i := range tasks {
		if !seen[tasks[i].Trader] {
			seen[tasks[i].Trader] = true
			traders = append(traders, tasks[i].Trader)
		}
	}
	return traders
}

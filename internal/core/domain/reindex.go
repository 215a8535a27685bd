package domain

import "math"

// Bounds for the ivfflat lists heuristic. Below 50 lists the index
// degenerates to near-flat scans; above 8192 the per-list population
// becomes too small to cluster usefully.
const (
	MinLists = 50
	MaxLists = 8192
)

// ReindexAction is the index lifecycle transition chosen by the planner.
type ReindexAction string

const (
	// ActionReindex rebuilds the existing index in place without
	// changing its lists parameter (defragmentation).
	ActionReindex ReindexAction = "reindex"

	// ActionSwap builds a replacement index with a new lists value,
	// then drops the old one and renames the new into place.
	ActionSwap ReindexAction = "swap"
)

// HeuristicLists derives the ivfflat lists parameter from the corpus
// size as round(sqrt(n)), clamped to [MinLists, MaxLists]. It is
// monotonically nondecreasing in n.
func HeuristicLists(n int64) int {
	if n <= 0 {
		return MinLists
	}
	k := int(math.Round(math.Sqrt(float64(n))))
	if k < MinLists {
		return MinLists
	}
	if k > MaxLists {
		return MaxLists
	}
	return k
}

// ReindexPlan is the computed lifecycle decision, reported before (and
// without) any DDL execution.
type ReindexPlan struct {
	// Rows is the embedding count driving the heuristic.
	Rows int64 `json:"rows"`

	// CurrentLists is the lists value parsed from the live index
	// definition, 0 when it could not be determined.
	CurrentLists int `json:"current_lists"`

	// DesiredLists is the target lists value (override or heuristic).
	DesiredLists int `json:"desired_lists"`

	// Action is the chosen transition.
	Action ReindexAction `json:"action"`

	// Analyze records that planner statistics are refreshed after the
	// action. Always true; present for plan readability.
	Analyze bool `json:"analyze"`
}

// ReindexResult reports an executed lifecycle transition.
type ReindexResult struct {
	// Action is the transition that was executed.
	Action ReindexAction `json:"action"`

	// DesiredLists is the lists value now in effect.
	DesiredLists int `json:"desired_lists"`

	// CurrentLists is the pre-transition lists value, 0 if unknown.
	CurrentLists int `json:"current_lists"`

	// Analyzed records that table statistics were refreshed.
	Analyzed bool `json:"analyzed"`
}

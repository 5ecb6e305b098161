package pathing

import "time"

// Settings collects every tunable in the navigation engine. A zero value is
// not usable; start from DefaultSettings and adjust.
type Settings struct {
	// Search timeouts. The primary timeout may be overrun while the best
	// partial result is not yet good enough; the failure timeout is a hard
	// stop. Plan-ahead searches get their own, usually longer, budget.
	PrimaryTimeout          time.Duration `yaml:"primaryTimeout" json:"primaryTimeout"`
	FailureTimeout          time.Duration `yaml:"failureTimeout" json:"failureTimeout"`
	PlanAheadPrimaryTimeout time.Duration `yaml:"planAheadPrimaryTimeout" json:"planAheadPrimaryTimeout"`
	PlanAheadFailureTimeout time.Duration `yaml:"planAheadFailureTimeout" json:"planAheadFailureTimeout"`

	// MinImprovementRatio decides when a partial path is good enough to
	// stop at the primary timeout: the best node's heuristic must have
	// shrunk to at most this fraction of the start heuristic.
	MinImprovementRatio float64 `yaml:"minImprovementRatio" json:"minImprovementRatio"`

	// TieBreakLowerHeuristic breaks equal-f ties toward the node closer to
	// the goal. Turning it off leaves ties to heap order.
	TieBreakLowerHeuristic bool `yaml:"tieBreakLowerHeuristic" json:"tieBreakLowerHeuristic"`

	// CancelCheckInterval is how many node expansions may pass between
	// polls of the cancellation flag and the wall clock.
	CancelCheckInterval int `yaml:"cancelCheckInterval" json:"cancelCheckInterval"`

	// Executor deviation thresholds.
	MaxDistFromPath    float64 `yaml:"maxDistFromPath" json:"maxDistFromPath"`
	MaxMaxDistFromPath float64 `yaml:"maxMaxDistFromPath" json:"maxMaxDistFromPath"`
	MaxTicksAway       int     `yaml:"maxTicksAway" json:"maxTicksAway"`

	// MovementTimeoutTicks is the slack added to a movement's original cost
	// estimate before the executor gives up on it.
	MovementTimeoutTicks      int     `yaml:"movementTimeoutTicks" json:"movementTimeoutTicks"`
	CostVerificationLookahead int     `yaml:"costVerificationLookahead" json:"costVerificationLookahead"`
	MaxCostIncrease           float64 `yaml:"maxCostIncrease" json:"maxCostIncrease"`

	// History cutoff keeps long-running executors from holding the entire
	// traversed path in memory.
	MaxPathHistoryLength    int `yaml:"maxPathHistoryLength" json:"maxPathHistoryLength"`
	PathHistoryCutoffAmount int `yaml:"pathHistoryCutoffAmount" json:"pathHistoryCutoffAmount"`

	// BacktrackCostFavoringCoefficient discounts edges that land on the
	// previous path so replans prefer continuity. 1 disables favoring.
	BacktrackCostFavoringCoefficient float64 `yaml:"backtrackCostFavoringCoefficient" json:"backtrackCostFavoringCoefficient"`

	AllowSprint  bool `yaml:"allowSprint" json:"allowSprint"`
	AllowBreak   bool `yaml:"allowBreak" json:"allowBreak"`
	AllowParkour bool `yaml:"allowParkour" json:"allowParkour"`
	SplicePath   bool `yaml:"splicePath" json:"splicePath"`

	// PlanAheadRemainingTicks is the remaining-segment estimate under which
	// the navigator starts computing the next segment.
	PlanAheadRemainingTicks float64 `yaml:"planAheadRemainingTicks" json:"planAheadRemainingTicks"`
}

func DefaultSettings() Settings {
	return Settings{
		PrimaryTimeout:                   500 * time.Millisecond,
		FailureTimeout:                   2 * time.Second,
		PlanAheadPrimaryTimeout:          4 * time.Second,
		PlanAheadFailureTimeout:          5 * time.Second,
		MinImprovementRatio:              0.5,
		TieBreakLowerHeuristic:           true,
		CancelCheckInterval:              64,
		MaxDistFromPath:                  2,
		MaxMaxDistFromPath:               3,
		MaxTicksAway:                     200,
		MovementTimeoutTicks:             100,
		CostVerificationLookahead:        5,
		MaxCostIncrease:                  10,
		MaxPathHistoryLength:             300,
		PathHistoryCutoffAmount:          50,
		BacktrackCostFavoringCoefficient: 0.5,
		AllowSprint:                      true,
		AllowBreak:                       false,
		AllowParkour:                     true,
		SplicePath:                       true,
		PlanAheadRemainingTicks:          150,
	}
}

package domain

import "strings"

// Strategy selects the allocation policy used to split free slots
type Strategy int

const (
	StrategyStable Strategy = iota
	StrategyAggressive
	StrategyExploratory
)

var strategyLabels = map[Strategy]string{
	StrategyStable:      "stable",
	StrategyAggressive:  "aggressive",
	StrategyExploratory: "exploratory",
}

var strategyCodes = map[string]Strategy{
	"stable":      StrategyStable,
	"aggressive":  StrategyAggressive,
	"exploratory": StrategyExploratory,
}

// String returns the wire label of the strategy.
func (s Strategy) String() string {
	if label, ok := strategyLabels[s]; ok {
		return label
	}

	return "unknown"
}

// ParseStrategy returns the strategy for a given label (case-insensitive).
// An empty label selects the stable strategy.
func ParseStrategy(label string) (Strategy, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return StrategyStable, true
	}
	s, ok := strategyCodes[label]

	return s, ok
}

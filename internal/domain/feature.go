package domain

import (
	"fmt"
	"strings"
)

// Feature identifies which user-facing tracker produced an observation.
// Rollups of different features are never merged.
type Feature int

const (
	Journal Feature = iota + 1
	Mood
	Assessment
)

// Features lists every feature in display order.
func Features() []Feature {
	return []Feature{Journal, Mood, Assessment}
}

func (f Feature) Valid() bool {
	return f >= Journal && f <= Assessment
}

func (f Feature) String() string {
	switch f {
	case Journal:
		return "journal"
	case Mood:
		return "mood"
	case Assessment:
		return "assessment"
	default:
		return fmt.Sprintf("feature(%d)", int(f))
	}
}

// ParseFeature converts "journal", "mood" or "assessment" into a Feature.
func ParseFeature(s string) (Feature, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "journal":
		return Journal, nil
	case "mood":
		return Mood, nil
	case "assessment":
		return Assessment, nil
	}
	return 0, fmt.Errorf("unknown feature %q", s)
}

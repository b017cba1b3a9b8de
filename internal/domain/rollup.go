package domain

import (
	"fmt"
	"time"
)

// RollupKey identifies one DailyRollup.
type RollupKey struct {
	User    string
	Date    time.Time
	Feature Feature
}

// Equal compares keys by calendar date rather than time.Time identity.
func (k RollupKey) Equal(o RollupKey) bool {
	return k.User == o.User && k.Feature == o.Feature && k.Date.Equal(o.Date)
}

func (k RollupKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.User, k.Feature, FormatDate(k.Date))
}

// DailyRollup is the running aggregate of one user's observations for one
// feature on one calendar day.
type DailyRollup struct {
	User    string
	Date    time.Time
	Feature Feature

	Count          int64
	AverageScore   float64
	CategoryTotals Distribution
	Dominant       Category

	StressCount   int64
	AverageStress float64

	// Version is the compare-and-swap token; 1 after the first fold.
	Version   int64
	UpdatedAt time.Time
}

// EmptyRollup is the "no data" value returned for a key with no observations.
func EmptyRollup(key RollupKey) DailyRollup {
	return DailyRollup{
		User:     key.User,
		Date:     key.Date,
		Feature:  key.Feature,
		Dominant: NoData,
	}
}

func (r DailyRollup) Key() RollupKey {
	return RollupKey{User: r.User, Date: r.Date, Feature: r.Feature}
}

// HasData reports whether at least one observation was folded in.
func (r DailyRollup) HasData() bool {
	return r.Count > 0
}

// DominantLabel renders the dominant category for the rollup's feature.
func (r DailyRollup) DominantLabel() string {
	return r.Dominant.Label(r.Feature)
}

// ScoreLabel is the label of the rounded average score, or "No Data".
func (r DailyRollup) ScoreLabel() string {
	if !r.HasData() {
		return LabelNoData
	}
	return CategoryFromScore(r.AverageScore).Label(r.Feature)
}

// Breakdown returns each bucket's share of the day in percent. One-hot and
// distribution contributions normalize the same way.
func (r DailyRollup) Breakdown() Distribution {
	return r.CategoryTotals.Normalized()
}

// Normalized scales the buckets so they sum to 100. An empty distribution
// stays all-zero.
func (d Distribution) Normalized() Distribution {
	var out Distribution
	sum := d.Sum()
	if sum <= 0 {
		return out
	}
	for i, v := range d {
		out[i] = v / sum * 100
	}
	return out
}

package models

import (
	"fmt"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
)

// RollupRecord is the storage shape of a DailyRollup shared by every backend.
// Dates travel as YYYY-MM-DD strings and features by name so stored data
// stays readable outside the service.
type RollupRecord struct {
	User          string     `json:"user"`
	Day           string     `json:"day"`
	Feature       string     `json:"feature"`
	Count         int64      `json:"count"`
	AverageScore  float64    `json:"average_score"`
	Totals        [5]float64 `json:"totals"`
	Dominant      int        `json:"dominant"`
	StressCount   int64      `json:"stress_count"`
	AverageStress float64    `json:"average_stress"`
	Version       int64      `json:"version"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func FromRollup(r domain.DailyRollup) RollupRecord {
	return RollupRecord{
		User:          r.User,
		Day:           domain.FormatDate(r.Date),
		Feature:       r.Feature.String(),
		Count:         r.Count,
		AverageScore:  r.AverageScore,
		Totals:        r.CategoryTotals,
		Dominant:      int(r.Dominant),
		StressCount:   r.StressCount,
		AverageStress: r.AverageStress,
		Version:       r.Version,
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (rec RollupRecord) ToRollup() (domain.DailyRollup, error) {
	day, err := domain.ParseDate(rec.Day)
	if err != nil {
		return domain.DailyRollup{}, fmt.Errorf("decode day %q: %w", rec.Day, err)
	}
	feature, err := domain.ParseFeature(rec.Feature)
	if err != nil {
		return domain.DailyRollup{}, fmt.Errorf("decode feature %q: %w", rec.Feature, err)
	}
	return domain.DailyRollup{
		User:           rec.User,
		Date:           day,
		Feature:        feature,
		Count:          rec.Count,
		AverageScore:   rec.AverageScore,
		CategoryTotals: rec.Totals,
		Dominant:       domain.Category(rec.Dominant),
		StressCount:    rec.StressCount,
		AverageStress:  rec.AverageStress,
		Version:        rec.Version,
		UpdatedAt:      rec.UpdatedAt.UTC(),
	}, nil
}

package domain

import "time"

// WeekDays is the length of a WeeklySeries.
const WeekDays = 7

// DayPoint is one calendar day in a Series. Days without data are explicit
// placeholders, never omitted.
type DayPoint struct {
	Date          time.Time
	HasData       bool
	Count         int64
	AverageScore  float64
	Dominant      Category
	DominantLabel string
	AverageStress float64
	Breakdown     Distribution
}

// Series is an ordered, gap-free sequence of days ending at End, in ascending
// date order.
type Series struct {
	User    string
	Feature Feature
	Start   time.Time
	End     time.Time
	Days    []DayPoint

	DaysWithData int
	// AverageScore is the count-weighted mean over days with data.
	AverageScore float64
}

// WeekBucket is one 7-day bucket of a Trend.
type WeekBucket struct {
	Start         time.Time
	End           time.Time
	DaysWithData  int
	Count         int64
	AverageScore  float64
	Dominant      Category
	DominantLabel string
	Breakdown     Distribution
}

// Trend is a sequence of consecutive 7-day buckets ending at End.
type Trend struct {
	User    string
	Feature Feature
	End     time.Time
	Weeks   []WeekBucket
}

// PlaceholderDay returns the "no data" point for date.
func PlaceholderDay(date time.Time) DayPoint {
	return DayPoint{
		Date:          date,
		Dominant:      NoData,
		DominantLabel: LabelNoData,
	}
}

// PointFromRollup converts a stored rollup into a series point.
func PointFromRollup(r DailyRollup) DayPoint {
	if !r.HasData() {
		return PlaceholderDay(r.Date)
	}
	return DayPoint{
		Date:          r.Date,
		HasData:       true,
		Count:         r.Count,
		AverageScore:  r.AverageScore,
		Dominant:      r.Dominant,
		DominantLabel: r.DominantLabel(),
		AverageStress: r.AverageStress,
		Breakdown:     r.Breakdown(),
	}
}

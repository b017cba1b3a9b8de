// Package v1 defines the wellbeing.v1.Wellbeing gRPC service. Messages are
// plain Go structs carried by the JSON codec registered in codec.go.
package v1

// Timestamps are RFC 3339 strings; dates are YYYY-MM-DD. An empty timestamp
// means "now" and an empty end date means "today".

type SubmitJournalRequest struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

type LogMoodRequest struct {
	User string `json:"user"`
	// Mood is a mood label ("happy"), a sentiment label or a score "0".."4".
	Mood      string   `json:"mood"`
	Stress    *float64 `json:"stress,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

type SubmitAssessmentRequest struct {
	User      string   `json:"user"`
	Answers   []string `json:"answers"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// WriteResponse is returned by every ingestion RPC.
type WriteResponse struct {
	ObservationIDs []string `json:"observation_ids"`
	Attempts       int      `json:"attempts"`
	Rollup         *Rollup  `json:"rollup"`
}

type Rollup struct {
	User          string    `json:"user"`
	Date          string    `json:"date"`
	Feature       string    `json:"feature"`
	HasData       bool      `json:"has_data"`
	Count         int64     `json:"count"`
	AverageScore  float64   `json:"average_score"`
	ScoreLabel    string    `json:"score_label"`
	DominantLabel string    `json:"dominant_label"`
	Breakdown     []float64 `json:"breakdown"`
	StressCount   int64     `json:"stress_count,omitempty"`
	AverageStress float64   `json:"average_stress,omitempty"`
	Version       int64     `json:"version"`
	UpdatedAt     string    `json:"updated_at,omitempty"`
}

type RollupRequest struct {
	User    string `json:"user"`
	Feature string `json:"feature"`
}

type RollupResponse struct {
	Rollup *Rollup `json:"rollup"`
}

type HistoryResponse struct {
	Rollups []*Rollup `json:"rollups"`
}

// SeriesRequest asks for Days days ending at End. GetWeekly ignores Days.
type SeriesRequest struct {
	User    string `json:"user"`
	Feature string `json:"feature"`
	End     string `json:"end,omitempty"`
	Days    int    `json:"days,omitempty"`
}

type DayPoint struct {
	Date          string    `json:"date"`
	HasData       bool      `json:"has_data"`
	Count         int64     `json:"count"`
	AverageScore  float64   `json:"average_score"`
	DominantLabel string    `json:"dominant_label"`
	AverageStress float64   `json:"average_stress,omitempty"`
	Breakdown     []float64 `json:"breakdown"`
}

type SeriesResponse struct {
	User         string      `json:"user"`
	Feature      string      `json:"feature"`
	Start        string      `json:"start"`
	End          string      `json:"end"`
	DaysWithData int         `json:"days_with_data"`
	AverageScore float64     `json:"average_score"`
	Days         []*DayPoint `json:"days"`
}

type TrendRequest struct {
	User    string `json:"user"`
	Feature string `json:"feature"`
	End     string `json:"end,omitempty"`
	Weeks   int    `json:"weeks,omitempty"`
}

type WeekBucket struct {
	Start         string    `json:"start"`
	End           string    `json:"end"`
	DaysWithData  int       `json:"days_with_data"`
	Count         int64     `json:"count"`
	AverageScore  float64   `json:"average_score"`
	DominantLabel string    `json:"dominant_label"`
	Breakdown     []float64 `json:"breakdown"`
}

type TrendResponse struct {
	User    string        `json:"user"`
	Feature string        `json:"feature"`
	End     string        `json:"end"`
	Weeks   []*WeekBucket `json:"weeks"`
}

type PendingRequest struct {
	User string `json:"user"`
}

type PendingResponse struct {
	Date     string   `json:"date"`
	Features []string `json:"features"`
}

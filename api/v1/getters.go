package v1

// Getters are nil-safe so handlers can read optional requests directly.

func (x *SubmitJournalRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

func (x *SubmitJournalRequest) GetText() string {
	if x == nil {
		return ""
	}
	return x.Text
}

func (x *SubmitJournalRequest) GetTimestamp() string {
	if x == nil {
		return ""
	}
	return x.Timestamp
}

func (x *LogMoodRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

func (x *LogMoodRequest) GetMood() string {
	if x == nil {
		return ""
	}
	return x.Mood
}

func (x *LogMoodRequest) GetStress() *float64 {
	if x == nil {
		return nil
	}
	return x.Stress
}

func (x *LogMoodRequest) GetTimestamp() string {
	if x == nil {
		return ""
	}
	return x.Timestamp
}

func (x *SubmitAssessmentRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

func (x *SubmitAssessmentRequest) GetAnswers() []string {
	if x == nil {
		return nil
	}
	return x.Answers
}

func (x *SubmitAssessmentRequest) GetTimestamp() string {
	if x == nil {
		return ""
	}
	return x.Timestamp
}

func (x *RollupRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

func (x *RollupRequest) GetFeature() string {
	if x == nil {
		return ""
	}
	return x.Feature
}

func (x *SeriesRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

func (x *SeriesRequest) GetFeature() string {
	if x == nil {
		return ""
	}
	return x.Feature
}

func (x *SeriesRequest) GetEnd() string {
	if x == nil {
		return ""
	}
	return x.End
}

func (x *SeriesRequest) GetDays() int {
	if x == nil {
		return 0
	}
	return x.Days
}

func (x *TrendRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

func (x *TrendRequest) GetFeature() string {
	if x == nil {
		return ""
	}
	return x.Feature
}

func (x *TrendRequest) GetEnd() string {
	if x == nil {
		return ""
	}
	return x.End
}

func (x *TrendRequest) GetWeeks() int {
	if x == nil {
		return 0
	}
	return x.Weeks
}

func (x *PendingRequest) GetUser() string {
	if x == nil {
		return ""
	}
	return x.User
}

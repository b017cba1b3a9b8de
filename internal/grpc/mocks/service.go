package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/service"
)

// MockIngestService is a function-field mock of the handler's IngestService.
type MockIngestService struct {
	SubmitJournalFunc    func(ctx context.Context, user, text string, at time.Time) (service.FoldResult, error)
	LogMoodFunc          func(ctx context.Context, user string, mood domain.Category, stress *float64, at time.Time) (service.FoldResult, error)
	SubmitAssessmentFunc func(ctx context.Context, user string, answers []domain.Category, at time.Time) (service.FoldResult, error)
}

func (m *MockIngestService) SubmitJournal(ctx context.Context, user, text string, at time.Time) (service.FoldResult, error) {
	if m.SubmitJournalFunc != nil {
		return m.SubmitJournalFunc(ctx, user, text, at)
	}
	return service.FoldResult{}, errors.New("SubmitJournalFunc not implemented")
}

func (m *MockIngestService) LogMood(ctx context.Context, user string, mood domain.Category, stress *float64, at time.Time) (service.FoldResult, error) {
	if m.LogMoodFunc != nil {
		return m.LogMoodFunc(ctx, user, mood, stress, at)
	}
	return service.FoldResult{}, errors.New("LogMoodFunc not implemented")
}

func (m *MockIngestService) SubmitAssessment(ctx context.Context, user string, answers []domain.Category, at time.Time) (service.FoldResult, error) {
	if m.SubmitAssessmentFunc != nil {
		return m.SubmitAssessmentFunc(ctx, user, answers, at)
	}
	return service.FoldResult{}, errors.New("SubmitAssessmentFunc not implemented")
}

// MockQueryService is a function-field mock of the handler's QueryService.
// TodayDate falls back to Now when TodayDateFunc is nil.
type MockQueryService struct {
	TodayFunc     func(ctx context.Context, user string, feature domain.Feature) (domain.DailyRollup, error)
	HistoryFunc   func(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error)
	WeeklyFunc    func(ctx context.Context, user string, feature domain.Feature, end time.Time) (domain.Series, error)
	SeriesFunc    func(ctx context.Context, user string, feature domain.Feature, end time.Time, days int) (domain.Series, error)
	TrendFunc     func(ctx context.Context, user string, feature domain.Feature, end time.Time, weeks int) (domain.Trend, error)
	PendingFunc   func(ctx context.Context, user string) ([]domain.Feature, error)
	TodayDateFunc func() time.Time
	Now           time.Time
}

func (m *MockQueryService) Today(ctx context.Context, user string, feature domain.Feature) (domain.DailyRollup, error) {
	if m.TodayFunc != nil {
		return m.TodayFunc(ctx, user, feature)
	}
	return domain.DailyRollup{}, errors.New("TodayFunc not implemented")
}

func (m *MockQueryService) History(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, user, feature)
	}
	return nil, errors.New("HistoryFunc not implemented")
}

func (m *MockQueryService) Weekly(ctx context.Context, user string, feature domain.Feature, end time.Time) (domain.Series, error) {
	if m.WeeklyFunc != nil {
		return m.WeeklyFunc(ctx, user, feature, end)
	}
	return domain.Series{}, errors.New("WeeklyFunc not implemented")
}

func (m *MockQueryService) Series(ctx context.Context, user string, feature domain.Feature, end time.Time, days int) (domain.Series, error) {
	if m.SeriesFunc != nil {
		return m.SeriesFunc(ctx, user, feature, end, days)
	}
	return domain.Series{}, errors.New("SeriesFunc not implemented")
}

func (m *MockQueryService) Trend(ctx context.Context, user string, feature domain.Feature, end time.Time, weeks int) (domain.Trend, error) {
	if m.TrendFunc != nil {
		return m.TrendFunc(ctx, user, feature, end, weeks)
	}
	return domain.Trend{}, errors.New("TrendFunc not implemented")
}

func (m *MockQueryService) Pending(ctx context.Context, user string) ([]domain.Feature, error) {
	if m.PendingFunc != nil {
		return m.PendingFunc(ctx, user)
	}
	return nil, errors.New("PendingFunc not implemented")
}

func (m *MockQueryService) TodayDate() time.Time {
	if m.TodayDateFunc != nil {
		return m.TodayDateFunc()
	}
	return m.Now
}

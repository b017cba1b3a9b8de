package grpc

import (
	"time"

	pb "github.com/godilite/wellbeing-server/api/v1"
	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/service"
)

func breakdown(d domain.Distribution) []float64 {
	out := make([]float64, domain.NumCategories)
	copy(out, d[:])
	return out
}

func toPBRollup(r domain.DailyRollup) *pb.Rollup {
	out := &pb.Rollup{
		User:          r.User,
		Date:          domain.FormatDate(r.Date),
		Feature:       r.Feature.String(),
		HasData:       r.HasData(),
		Count:         r.Count,
		AverageScore:  r.AverageScore,
		ScoreLabel:    r.ScoreLabel(),
		DominantLabel: r.DominantLabel(),
		Breakdown:     breakdown(r.Breakdown()),
		StressCount:   r.StressCount,
		AverageStress: r.AverageStress,
		Version:       r.Version,
	}
	if !r.UpdatedAt.IsZero() {
		out.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func toWriteResponse(res service.FoldResult) *pb.WriteResponse {
	ids := make([]string, len(res.Observations))
	for i, o := range res.Observations {
		ids[i] = o.ID.String()
	}
	return &pb.WriteResponse{
		ObservationIDs: ids,
		Attempts:       res.Attempts,
		Rollup:         toPBRollup(res.Rollup),
	}
}

func toPBSeries(s domain.Series) *pb.SeriesResponse {
	days := make([]*pb.DayPoint, len(s.Days))
	for i, d := range s.Days {
		days[i] = &pb.DayPoint{
			Date:          domain.FormatDate(d.Date),
			HasData:       d.HasData,
			Count:         d.Count,
			AverageScore:  d.AverageScore,
			DominantLabel: d.DominantLabel,
			AverageStress: d.AverageStress,
			Breakdown:     breakdown(d.Breakdown),
		}
	}
	return &pb.SeriesResponse{
		User:         s.User,
		Feature:      s.Feature.String(),
		Start:        domain.FormatDate(s.Start),
		End:          domain.FormatDate(s.End),
		DaysWithData: s.DaysWithData,
		AverageScore: s.AverageScore,
		Days:         days,
	}
}

func toPBTrend(t domain.Trend) *pb.TrendResponse {
	weeks := make([]*pb.WeekBucket, len(t.Weeks))
	for i, w := range t.Weeks {
		weeks[i] = &pb.WeekBucket{
			Start:         domain.FormatDate(w.Start),
			End:           domain.FormatDate(w.End),
			DaysWithData:  w.DaysWithData,
			Count:         w.Count,
			AverageScore:  w.AverageScore,
			DominantLabel: w.DominantLabel,
			Breakdown:     breakdown(w.Breakdown),
		}
	}
	return &pb.TrendResponse{
		User:    t.User,
		Feature: t.Feature.String(),
		End:     domain.FormatDate(t.End),
		Weeks:   weeks,
	}
}

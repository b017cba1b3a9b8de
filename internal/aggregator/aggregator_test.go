package aggregator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDay  = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	fixedNow = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
	testAgg  = New(time.UTC, fixedNow)
)

func obs(feature domain.Feature, c domain.Category) domain.Observation {
	return domain.Observation{User: "alice", Timestamp: testDay, Feature: feature, Category: c}
}

func floatPtr(v float64) *float64 { return &v }

// TestFold_FreshRollup covers the first observation of a day
func TestFold_FreshRollup(t *testing.T) {
	t.Run("distribution observation", func(t *testing.T) {
		dist := domain.Distribution{0, 5, 15, 70, 10}
		o := obs(domain.Journal, domain.Positive)
		o.Distribution = &dist

		r, err := testAgg.Fold(nil, o)

		require.NoError(t, err)
		assert.Equal(t, int64(1), r.Count)
		assert.Equal(t, 3.0, r.AverageScore)
		assert.Equal(t, domain.Positive, r.Dominant)
		assert.Equal(t, dist, r.CategoryTotals)
		assert.Equal(t, int64(1), r.Version)
		assert.Equal(t, domain.NewDate(2025, 1, 15), r.Date)
		assert.Equal(t, fixedNow(), r.UpdatedAt)
	})

	t.Run("one-hot observation", func(t *testing.T) {
		r, err := testAgg.Fold(nil, obs(domain.Assessment, domain.Negative))

		require.NoError(t, err)
		assert.Equal(t, 1.0, r.AverageScore)
		assert.Equal(t, domain.Negative, r.Dominant)
		assert.Equal(t, domain.Distribution{0, 1, 0, 0, 0}, r.CategoryTotals)
	})
}

func TestFold_RunningAverage(t *testing.T) {
	r, err := testAgg.Fold(nil, obs(domain.Mood, domain.VeryPositive))
	require.NoError(t, err)
	r, err = testAgg.Fold(&r, obs(domain.Mood, domain.Neutral))
	require.NoError(t, err)

	assert.Equal(t, int64(2), r.Count)
	assert.Equal(t, 3.0, r.AverageScore)
	assert.Equal(t, domain.Mixed, r.Dominant)

	r, err = testAgg.Fold(&r, obs(domain.Mood, domain.Neutral))
	require.NoError(t, err)

	assert.Equal(t, int64(3), r.Count)
	assert.InDelta(t, 2.67, r.AverageScore, 0.01)
	assert.Equal(t, domain.Neutral, r.Dominant)
	assert.Equal(t, int64(3), r.Version)
}

func TestFold_DoesNotMutateExisting(t *testing.T) {
	base, err := testAgg.Fold(nil, obs(domain.Mood, domain.Positive))
	require.NoError(t, err)
	snapshot := base

	_, err = testAgg.Fold(&base, obs(domain.Mood, domain.Negative))
	require.NoError(t, err)

	assert.Equal(t, snapshot, base)
}

func TestFold_CountIncreasesByOne(t *testing.T) {
	base, err := testAgg.Fold(nil, obs(domain.Mood, domain.Positive))
	require.NoError(t, err)

	a, err := testAgg.Fold(&base, obs(domain.Mood, domain.Negative))
	require.NoError(t, err)
	b, err := testAgg.Fold(&base, obs(domain.Mood, domain.VeryPositive))
	require.NoError(t, err)

	assert.Equal(t, base.Count+1, a.Count)
	assert.Equal(t, base.Count+1, b.Count)
}

// TestFold_MeanIsOrderIndependent checks the online update against a direct
// mean for shuffled fold orders.
func TestFold_MeanIsOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		scores := make([]domain.Category, n)
		var sum float64
		for i := range scores {
			scores[i] = domain.Category(rng.Intn(domain.NumCategories))
			sum += scores[i].Score()
		}
		want := sum / float64(n)

		for pass := 0; pass < 3; pass++ {
			rng.Shuffle(n, func(i, j int) { scores[i], scores[j] = scores[j], scores[i] })

			var r *domain.DailyRollup
			for _, c := range scores {
				next, err := testAgg.Fold(r, obs(domain.Assessment, c))
				require.NoError(t, err)
				r = &next
			}

			assert.Equal(t, int64(n), r.Count)
			assert.InDelta(t, want, r.AverageScore, 1e-9)
		}
	}
}

func TestFold_Stress(t *testing.T) {
	o := obs(domain.Mood, domain.Positive)
	o.Stress = floatPtr(40)
	r, err := testAgg.Fold(nil, o)
	require.NoError(t, err)

	r, err = testAgg.Fold(&r, obs(domain.Mood, domain.Positive))
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.StressCount)
	assert.Equal(t, 40.0, r.AverageStress)

	o.Stress = floatPtr(80)
	r, err = testAgg.Fold(&r, o)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.StressCount)
	assert.Equal(t, 60.0, r.AverageStress)
	assert.Equal(t, int64(3), r.Count)
}

func TestFold_Rejections(t *testing.T) {
	base, err := testAgg.Fold(nil, obs(domain.Assessment, domain.VeryPositive))
	require.NoError(t, err)
	base, err = testAgg.Fold(&base, obs(domain.Assessment, domain.Neutral))
	require.NoError(t, err)
	snapshot := base

	t.Run("score out of range", func(t *testing.T) {
		_, err := testAgg.Fold(&base, obs(domain.Assessment, domain.Category(7)))

		assert.ErrorIs(t, err, domain.ErrInvalidObservation)
		assert.Equal(t, int64(2), base.Count)
		assert.Equal(t, snapshot, base)
	})

	t.Run("different feature", func(t *testing.T) {
		_, err := testAgg.Fold(&base, obs(domain.Mood, domain.Neutral))
		assert.ErrorIs(t, err, domain.ErrInvalidObservation)
	})

	t.Run("different day", func(t *testing.T) {
		o := obs(domain.Assessment, domain.Neutral)
		o.Timestamp = testDay.AddDate(0, 0, 1)
		_, err := testAgg.Fold(&base, o)
		assert.ErrorIs(t, err, domain.ErrInvalidObservation)
	})
}

func TestFoldAll(t *testing.T) {
	t.Run("batch folds like sequential folds", func(t *testing.T) {
		batch := []domain.Observation{
			obs(domain.Assessment, domain.Positive),
			obs(domain.Assessment, domain.Neutral),
			obs(domain.Assessment, domain.Positive),
		}

		r, err := testAgg.FoldAll(nil, batch...)

		require.NoError(t, err)
		assert.Equal(t, int64(3), r.Count)
		assert.InDelta(t, 8.0/3.0, r.AverageScore, 1e-9)
		assert.Equal(t, domain.Positive, r.Dominant)
		assert.Equal(t, int64(1), r.Version)
	})

	t.Run("one invalid observation rejects the batch", func(t *testing.T) {
		_, err := testAgg.FoldAll(nil,
			obs(domain.Assessment, domain.Positive),
			obs(domain.Assessment, domain.Category(-4)),
		)
		assert.ErrorIs(t, err, domain.ErrInvalidObservation)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := testAgg.FoldAll(nil)
		assert.ErrorIs(t, err, domain.ErrInvalidObservation)
	})
}

func TestDominant(t *testing.T) {
	cases := []struct {
		name   string
		totals domain.Distribution
		want   domain.Category
	}{
		{"tie between two buckets", domain.Distribution{3, 3, 0, 0, 0}, domain.Mixed},
		{"single winner", domain.Distribution{0, 0, 0, 5, 0}, domain.Positive},
		{"all zero", domain.Distribution{}, domain.NoData},
		{"fractional winner", domain.Distribution{10.5, 20.25, 20.2, 0, 0}, domain.Negative},
		{"three-way tie", domain.Distribution{0, 2, 2, 2, 1}, domain.Mixed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Dominant(tc.totals))
		})
	}
}

func TestValidate(t *testing.T) {
	good := domain.Distribution{0, 5, 15, 70, 10}
	bad := domain.Distribution{0, 5, 15, 70, 40}
	mismatch := domain.Distribution{100, 0, 0, 0, 0}
	negative := domain.Distribution{-5, 5, 30, 60, 10}

	cases := []struct {
		name    string
		mutate  func(o *domain.Observation)
		wantErr bool
	}{
		{"valid one-hot", func(o *domain.Observation) {}, false},
		{"valid distribution", func(o *domain.Observation) { o.Distribution = &good }, false},
		{"missing user", func(o *domain.Observation) { o.User = "  " }, true},
		{"zero timestamp", func(o *domain.Observation) { o.Timestamp = time.Time{} }, true},
		{"unknown feature", func(o *domain.Observation) { o.Feature = 0 }, true},
		{"score too high", func(o *domain.Observation) { o.Category = 7 }, true},
		{"sentinel category", func(o *domain.Observation) { o.Category = domain.Mixed }, true},
		{"distribution does not sum to 100", func(o *domain.Observation) { o.Distribution = &bad }, true},
		{"distribution disagrees with category", func(o *domain.Observation) { o.Distribution = &mismatch }, true},
		{"negative share", func(o *domain.Observation) { o.Distribution = &negative }, true},
		{"stress too high", func(o *domain.Observation) { o.Stress = floatPtr(101) }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := obs(domain.Journal, domain.Positive)
			tc.mutate(&o)

			err := Validate(o)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidObservation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New(nil, nil)
	assert.Equal(t, time.UTC, a.Location())
	assert.NotNil(t, a.now)
}

func BenchmarkFold(b *testing.B) {
	dist := domain.Distribution{0, 5, 15, 70, 10}
	o := obs(domain.Journal, domain.Positive)
	o.Distribution = &dist
	r, _ := testAgg.Fold(nil, o)

	b.ReportAllocs()

	for b.Loop() {
		r, _ = testAgg.Fold(&r, o)
	}
}

// Package aggregator folds observations into daily rollups.
//
// Fold is a pure function: it never touches storage and never mutates its
// input. Persisting the result (and guarding it against lost updates) is the
// caller's job.
package aggregator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
)

const tieEpsilon = 1e-9

// Aggregator folds observations using a fixed time zone to derive calendar
// dates.
type Aggregator struct {
	loc *time.Location
	now func() time.Time
}

// New creates an Aggregator. A nil location means UTC; a nil now func means
// time.Now.
func New(loc *time.Location, now func() time.Time) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{loc: loc, now: now}
}

// Location returns the zone used to assign observations to days.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Fold folds one observation into existing, which may be nil for the first
// observation of the day.
func (a *Aggregator) Fold(existing *domain.DailyRollup, obs domain.Observation) (domain.DailyRollup, error) {
	return a.FoldAll(existing, obs)
}

// FoldAll folds a batch of observations sharing one key. Either every
// observation is folded or an error is returned and nothing is.
func (a *Aggregator) FoldAll(existing *domain.DailyRollup, batch ...domain.Observation) (domain.DailyRollup, error) {
	if len(batch) == 0 {
		return domain.DailyRollup{}, fmt.Errorf("%w: empty batch", domain.ErrInvalidObservation)
	}

	key := batch[0].Key(a.loc)
	for _, obs := range batch {
		if err := Validate(obs); err != nil {
			return domain.DailyRollup{}, err
		}
		if k := obs.Key(a.loc); !k.Equal(key) {
			return domain.DailyRollup{}, fmt.Errorf("%w: batch mixes keys %s and %s", domain.ErrInvalidObservation, key, k)
		}
	}

	var next domain.DailyRollup
	if existing == nil {
		next = domain.EmptyRollup(key)
	} else {
		if !existing.Key().Equal(key) {
			return domain.DailyRollup{}, fmt.Errorf("%w: observation key %s does not match rollup %s", domain.ErrInvalidObservation, key, existing.Key())
		}
		next = *existing
	}

	for _, obs := range batch {
		next = step(next, obs)
	}
	next.Dominant = Dominant(next.CategoryTotals)
	next.Version++
	next.UpdatedAt = a.now().UTC()
	return next, nil
}

// step applies the online-mean update for one observation.
func step(r domain.DailyRollup, obs domain.Observation) domain.DailyRollup {
	n := float64(r.Count)
	r.AverageScore = (r.AverageScore*n + obs.Score()) / (n + 1)
	r.Count++

	contrib := obs.Contribution()
	for i := range r.CategoryTotals {
		r.CategoryTotals[i] += contrib[i]
	}

	if obs.Stress != nil {
		m := float64(r.StressCount)
		r.AverageStress = (r.AverageStress*m + *obs.Stress) / (m + 1)
		r.StressCount++
	}
	return r
}

// Dominant returns the bucket with the largest total. Several buckets sharing
// the maximum yield Mixed; an all-zero tally yields NoData.
func Dominant(totals domain.Distribution) domain.Category {
	best := math.Inf(-1)
	for _, v := range totals {
		if v > best {
			best = v
		}
	}
	if best <= tieEpsilon {
		return domain.NoData
	}

	winner := domain.NoData
	for i, v := range totals {
		if math.Abs(v-best) > tieEpsilon {
			continue
		}
		if winner != domain.NoData {
			return domain.Mixed
		}
		winner = domain.Category(i)
	}
	return winner
}

// Validate rejects observations the aggregator must not fold. It never clamps.
func Validate(obs domain.Observation) error {
	switch {
	case strings.TrimSpace(obs.User) == "":
		return fmt.Errorf("%w: user is required", domain.ErrInvalidObservation)
	case obs.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", domain.ErrInvalidObservation)
	case !obs.Feature.Valid():
		return fmt.Errorf("%w: unknown feature %d", domain.ErrInvalidObservation, int(obs.Feature))
	case !obs.Category.Valid():
		return fmt.Errorf("%w: score %d outside [0,4]", domain.ErrInvalidObservation, int(obs.Category))
	}

	if obs.Stress != nil {
		s := *obs.Stress
		if math.IsNaN(s) || s < 0 || s > 100 {
			return fmt.Errorf("%w: stress %v outside [0,100]", domain.ErrInvalidObservation, s)
		}
	}

	if obs.Distribution != nil {
		if err := ValidateDistribution(*obs.Distribution); err != nil {
			return err
		}
		if got := obs.Distribution.Category(); got != obs.Category {
			return fmt.Errorf("%w: category %s disagrees with distribution mean (%s)",
				domain.ErrInvalidObservation, obs.Category, got)
		}
	}
	return nil
}

// ValidateDistribution checks every bucket is a percentage and the buckets sum
// to 100 within rounding tolerance.
func ValidateDistribution(d domain.Distribution) error {
	for i, v := range d {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("%w: %s share %v outside [0,100]", domain.ErrInvalidObservation, domain.Category(i), v)
		}
	}
	if sum := d.Sum(); math.Abs(sum-100) > domain.DistributionTolerance {
		return fmt.Errorf("%w: distribution sums to %.2f, want 100", domain.ErrInvalidObservation, sum)
	}
	return nil
}

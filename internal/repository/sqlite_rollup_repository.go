package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/repository/models"
)

// Schema creates the daily_rollups table. One row per (user, feature, day);
// version is the compare-and-swap token.
const Schema = `
	CREATE TABLE IF NOT EXISTS daily_rollups (
		user_id TEXT NOT NULL,
		feature TEXT NOT NULL,
		day TEXT NOT NULL,
		count INTEGER NOT NULL,
		average_score REAL NOT NULL,
		total_very_negative REAL NOT NULL DEFAULT 0,
		total_negative REAL NOT NULL DEFAULT 0,
		total_neutral REAL NOT NULL DEFAULT 0,
		total_positive REAL NOT NULL DEFAULT 0,
		total_very_positive REAL NOT NULL DEFAULT 0,
		dominant INTEGER NOT NULL,
		stress_count INTEGER NOT NULL DEFAULT 0,
		average_stress REAL NOT NULL DEFAULT 0,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, feature, day)
	);
`

const rollupColumns = `user_id, feature, day, count, average_score,
	total_very_negative, total_negative, total_neutral, total_positive, total_very_positive,
	dominant, stress_count, average_stress, version, updated_at`

type SQLiteRollupRepository struct {
	db *sql.DB
}

func NewSQLiteRollupRepository(db *sql.DB) *SQLiteRollupRepository {
	return &SQLiteRollupRepository{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteRollupRepository) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: migrate daily_rollups: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Get fetches one rollup by its composite key.
func (s *SQLiteRollupRepository) Get(ctx context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
	query := `SELECT ` + rollupColumns + ` FROM daily_rollups WHERE user_id = ? AND feature = ? AND day = ?`

	row := s.db.QueryRowContext(ctx, query, key.User, key.Feature.String(), domain.FormatDate(key.Date))
	r, err := scanRollup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailyRollup{}, domain.ErrRollupNotFound
	}
	if err != nil {
		return domain.DailyRollup{}, fmt.Errorf("%w: query Get: %v", domain.ErrStorageUnavailable, err)
	}
	return r, nil
}

// Upsert writes rollup if the stored version still equals expectedVersion.
// expectedVersion 0 inserts and fails if a row already exists.
func (s *SQLiteRollupRepository) Upsert(ctx context.Context, r domain.DailyRollup, expectedVersion int64) error {
	rec := models.FromRollup(r)
	updatedAt := rec.UpdatedAt.Format(time.RFC3339Nano)

	var (
		res sql.Result
		err error
	)
	if expectedVersion == 0 {
		const insert = `
			INSERT INTO daily_rollups (` + rollupColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, feature, day) DO NOTHING
		`
		res, err = s.db.ExecContext(ctx, insert,
			rec.User, rec.Feature, rec.Day, rec.Count, rec.AverageScore,
			rec.Totals[0], rec.Totals[1], rec.Totals[2], rec.Totals[3], rec.Totals[4],
			rec.Dominant, rec.StressCount, rec.AverageStress, rec.Version, updatedAt)
	} else {
		const update = `
			UPDATE daily_rollups SET
				count = ?, average_score = ?,
				total_very_negative = ?, total_negative = ?, total_neutral = ?, total_positive = ?, total_very_positive = ?,
				dominant = ?, stress_count = ?, average_stress = ?, version = ?, updated_at = ?
			WHERE user_id = ? AND feature = ? AND day = ? AND version = ?
		`
		res, err = s.db.ExecContext(ctx, update,
			rec.Count, rec.AverageScore,
			rec.Totals[0], rec.Totals[1], rec.Totals[2], rec.Totals[3], rec.Totals[4],
			rec.Dominant, rec.StressCount, rec.AverageStress, rec.Version, updatedAt,
			rec.User, rec.Feature, rec.Day, expectedVersion)
	}
	if err != nil {
		return fmt.Errorf("%w: exec Upsert: %v", domain.ErrStorageUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", domain.ErrStorageUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s at version %d", domain.ErrConcurrentUpdateConflict, r.Key(), expectedVersion)
	}
	return nil
}

// ListHistory returns every rollup of user for feature, newest day first.
func (s *SQLiteRollupRepository) ListHistory(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error) {
	query := `SELECT ` + rollupColumns + ` FROM daily_rollups
		WHERE user_id = ? AND feature = ?
		ORDER BY day DESC`

	return s.list(ctx, "ListHistory", query, user, feature.String())
}

// ListRange returns rollups with from <= day <= to, oldest first.
func (s *SQLiteRollupRepository) ListRange(ctx context.Context, user string, feature domain.Feature, from, to time.Time) ([]domain.DailyRollup, error) {
	query := `SELECT ` + rollupColumns + ` FROM daily_rollups
		WHERE user_id = ? AND feature = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`

	return s.list(ctx, "ListRange", query, user, feature.String(), domain.FormatDate(from), domain.FormatDate(to))
}

func (s *SQLiteRollupRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.DailyRollup, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrStorageUnavailable, op, err)
	}
	defer rows.Close()

	var results []domain.DailyRollup
	for rows.Next() {
		r, err := scanRollup(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan %s row: %v", domain.ErrStorageUnavailable, op, err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", domain.ErrStorageUnavailable, op, err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRollup(sc scanner) (domain.DailyRollup, error) {
	var rec models.RollupRecord
	var updatedAt string
	err := sc.Scan(&rec.User, &rec.Feature, &rec.Day, &rec.Count, &rec.AverageScore,
		&rec.Totals[0], &rec.Totals[1], &rec.Totals[2], &rec.Totals[3], &rec.Totals[4],
		&rec.Dominant, &rec.StressCount, &rec.AverageStress, &rec.Version, &updatedAt)
	if err != nil {
		return domain.DailyRollup{}, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.DailyRollup{}, fmt.Errorf("decode updated_at %q: %w", updatedAt, err)
	}
	return rec.ToRollup()
}

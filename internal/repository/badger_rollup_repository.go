package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/godilite/wellbeing-server/internal/domain"
	"github.com/godilite/wellbeing-server/internal/repository/models"
	"github.com/godilite/wellbeing-server/pkg/kv"
)

// BadgerRollupRepository stores each rollup as a JSON value under
// rollup/<feature>/<escaped user>/<YYYY-MM-DD>, so a user's days for one
// feature are contiguous and sorted by date.
type BadgerRollupRepository struct {
	db *kv.DB
}

func NewBadgerRollupRepository(db *kv.DB) *BadgerRollupRepository {
	return &BadgerRollupRepository{db: db}
}

func badgerPrefix(user string, feature domain.Feature) []byte {
	return []byte("rollup/" + feature.String() + "/" + url.PathEscape(user) + "/")
}

func badgerKey(key domain.RollupKey) []byte {
	return append(badgerPrefix(key.User, key.Feature), domain.FormatDate(key.Date)...)
}

func (b *BadgerRollupRepository) Get(ctx context.Context, key domain.RollupKey) (domain.DailyRollup, error) {
	var out domain.DailyRollup
	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		r, err := readRollup(txn, badgerKey(key))
		out = r
		return err
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.DailyRollup{}, domain.ErrRollupNotFound
	default:
		return domain.DailyRollup{}, fmt.Errorf("%w: badger get %s: %v", domain.ErrStorageUnavailable, key, err)
	}
}

// Upsert checks the stored version and writes inside one transaction. Badger's
// optimistic concurrency control turns an interleaved writer into
// badger.ErrConflict at commit.
func (b *BadgerRollupRepository) Upsert(ctx context.Context, r domain.DailyRollup, expectedVersion int64) error {
	k := badgerKey(r.Key())
	value, err := json.Marshal(models.FromRollup(r))
	if err != nil {
		return fmt.Errorf("%w: encode rollup: %v", domain.ErrStorageUnavailable, err)
	}

	err = b.db.WithTxn(ctx, func(txn *badger.Txn) error {
		stored, err := readRollup(txn, k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if expectedVersion != 0 {
				return domain.ErrConcurrentUpdateConflict
			}
		case err != nil:
			return err
		case stored.Version != expectedVersion:
			return domain.ErrConcurrentUpdateConflict
		}
		return txn.Set(k, value)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConcurrentUpdateConflict), errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %s at version %d", domain.ErrConcurrentUpdateConflict, r.Key(), expectedVersion)
	default:
		return fmt.Errorf("%w: badger upsert %s: %v", domain.ErrStorageUnavailable, r.Key(), err)
	}
}

func (b *BadgerRollupRepository) ListHistory(ctx context.Context, user string, feature domain.Feature) ([]domain.DailyRollup, error) {
	prefix := badgerPrefix(user, feature)
	var results []domain.DailyRollup

	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// in reverse mode Seek lands on the last key <= the target
		for it.Seek(append(append([]byte{}, prefix...), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			r, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: badger ListHistory: %v", domain.ErrStorageUnavailable, err)
	}
	return results, nil
}

func (b *BadgerRollupRepository) ListRange(ctx context.Context, user string, feature domain.Feature, from, to time.Time) ([]domain.DailyRollup, error) {
	prefix := badgerPrefix(user, feature)
	start := append(append([]byte{}, prefix...), domain.FormatDate(from)...)
	end := append(append([]byte{}, prefix...), domain.FormatDate(to)...)
	var results []domain.DailyRollup

	err := b.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			if bytes.Compare(it.Item().Key(), end) > 0 {
				break
			}
			r, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: badger ListRange: %v", domain.ErrStorageUnavailable, err)
	}
	return results, nil
}

func readRollup(txn *badger.Txn, key []byte) (domain.DailyRollup, error) {
	item, err := txn.Get(key)
	if err != nil {
		return domain.DailyRollup{}, err
	}
	return decodeItem(item)
}

func decodeItem(item *badger.Item) (domain.DailyRollup, error) {
	var out domain.DailyRollup
	err := item.Value(func(val []byte) error {
		r, err := decodeRecord(val)
		out = r
		return err
	})
	if err != nil {
		return domain.DailyRollup{}, fmt.Errorf("%s: %w", item.Key(), err)
	}
	return out, nil
}

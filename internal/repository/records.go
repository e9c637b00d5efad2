package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	errs "kifu/internal/errors"
)

const (
	recordPrefix = "record:"
	recordIndex  = "records"
)

// RecordStore keeps serialized game collections in Redis under record:<id>, with a
// sorted set of record IDs by save time.
type RecordStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRecordStore(client *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *RecordStore {
	return &RecordStore{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (r *RecordStore) SaveRecord(ctx context.Context, id string, sgfText string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordPrefix+id, sgfText, r.ttl)
		pipe.ZAdd(ctx, recordIndex, redis.Z{Score: float64(time.Now().Unix()), Member: id})
		return nil
	})
	if err != nil {
		r.log.Errorf("failed to save record %s: %v", id, err)
		return fmt.Errorf("save record %s: %w", id, err)
	}
	return nil
}

func (r *RecordStore) LoadRecord(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	v, err := r.client.Get(ctx, recordPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("record %s: %w", id, errs.ErrRecordNotFound)
	} else if err != nil {
		r.log.Errorf("failed to load record %s: %v", id, err)
		return "", fmt.Errorf("load record %s: %w", id, err)
	}
	return v, nil
}

// ListRecords returns the IDs of records that have not expired, newest first.
func (r *RecordStore) ListRecords(ctx context.Context, limit int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if r.ttl > 0 {
		cutoff := time.Now().Add(-r.ttl).Unix()
		if err := r.client.ZRemRangeByScore(ctx, recordIndex, "-inf", fmt.Sprintf("(%d", cutoff)).Err(); err != nil {
			return nil, fmt.Errorf("prune records: %w", err)
		}
	}
	ids, err := r.client.ZRevRange(ctx, recordIndex, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return ids, nil
}

func (r *RecordStore) DeleteRecord(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, recordPrefix+id)
		pipe.ZRem(ctx, recordIndex, id)
		return nil
	})
	return err
}

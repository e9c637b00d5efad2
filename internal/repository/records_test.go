package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	errs "kifu/internal/errors"
)

func setupRecordStore(t *testing.T) (*RecordStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	opts, err := redis.ParseURL("redis://" + s.Addr())
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return NewRecordStore(client, time.Hour, zap.NewNop().Sugar()), s
}

func TestRecordRoundTrip(t *testing.T) {
	store, s := setupRecordStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, "abc", "(;SZ[9])"))

	got, err := store.LoadRecord(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "(;SZ[9])", got)
	assert.Equal(t, time.Hour, s.TTL("record:abc"))
}

func TestRecordMissing(t *testing.T) {
	store, _ := setupRecordStore(t)

	_, err := store.LoadRecord(context.Background(), "nope")
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestRecordExpires(t *testing.T) {
	store, s := setupRecordStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, "abc", "(;)"))
	s.FastForward(2 * time.Hour)

	_, err := store.LoadRecord(ctx, "abc")
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestListAndDeleteRecords(t *testing.T) {
	store, _ := setupRecordStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, "one", "(;)"))
	require.NoError(t, store.SaveRecord(ctx, "two", "(;)"))

	ids, err := store.ListRecords(ctx, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, ids)

	require.NoError(t, store.DeleteRecord(ctx, "one"))
	ids, err = store.ListRecords(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, ids)
}

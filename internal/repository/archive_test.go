package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPlayerFilterEscapesName(t *testing.T) {
	f := playerFilter("Go Seigen (9p)")

	or, ok := f["$or"].([]bson.M)
	if assert.True(t, ok) && assert.Len(t, or, 2) {
		pattern := or[0]["player_black"].(bson.M)
		assert.Equal(t, `Go Seigen \(9p\)`, pattern["$regex"])
		assert.Equal(t, "i", pattern["$options"])
		assert.Contains(t, or[1], "player_white")
	}
}

func TestPlayerFilterEmptyMatchesAll(t *testing.T) {
	assert.Empty(t, playerFilter(""))
}

func TestNewArchiveStorePageLimit(t *testing.T) {
	assert.Equal(t, int64(20), NewArchiveStore(nil, 0, nil).pageLimit)
	assert.Equal(t, int64(5), NewArchiveStore(nil, 5, nil).pageLimit)
}

package repo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"kifu/internal/domain"
)

const archiveCollection = "archive"

// ArchiveStore keeps one summary document per loaded game in MongoDB.
type ArchiveStore struct {
	mongo     *mongo.Database
	pageLimit int64
	log       *zap.SugaredLogger
}

func NewArchiveStore(db *mongo.Database, pageLimit int, log *zap.SugaredLogger) *ArchiveStore {
	if pageLimit <= 0 {
		pageLimit = 20
	}
	return &ArchiveStore{
		mongo:     db,
		pageLimit: int64(pageLimit),
		log:       log,
	}
}

func (a *ArchiveStore) ArchiveGames(ctx context.Context, entries []domain.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e)
	}
	_, err := a.mongo.Collection(archiveCollection).InsertMany(ctx, docs)
	if err != nil {
		a.log.Errorf("failed to insert archive entries: %v", err)
		return fmt.Errorf("archive games: %w", err)
	}
	a.log.Infof("archived %d games", len(entries))
	return nil
}

// GetArchiveGamesByName pages through games where name played either color. Pages
// start at 1.
func (a *ArchiveStore) GetArchiveGamesByName(ctx context.Context, name string, pageNum int) (*domain.ArchiveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pageNum < 1 {
		pageNum = 1
	}
	collection := a.mongo.Collection(archiveCollection)
	filter := playerFilter(name)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		a.log.Error(err)
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(pageNum-1) * a.pageLimit).
		SetLimit(a.pageLimit).
		SetProjection(bson.M{"sgf": 0})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		a.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	resp := &domain.ArchiveResponse{Page: pageNum, Total: total, Games: []domain.ArchiveEntry{}}
	for cursor.Next(ctx) {
		var entry domain.ArchiveEntry
		if err = cursor.Decode(&entry); err != nil {
			a.log.Error(err)
			return nil, err
		}
		resp.Games = append(resp.Games, entry)
	}
	return resp, cursor.Err()
}

// playerFilter matches name case-insensitively as a substring of either player.
// An empty name matches every game.
func playerFilter(name string) bson.M {
	if name == "" {
		return bson.M{}
	}
	pattern := bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"}
	return bson.M{
		"$or": []bson.M{
			{"player_black": pattern},
			{"player_white": pattern},
		},
	}
}

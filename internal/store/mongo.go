package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	combinationsCollection = "combinations"
	usersCollection        = "users"

	mongoConnectTimeout = 5 * time.Second
)

// Mongo is the production shared store. The combination key is the
// document _id, so MongoDB's unique-_id insert is the insert-if-absent
// primitive that arbitrates first discoveries across replicas.
type Mongo struct {
	client       *mongo.Client
	combinations *mongo.Collection
	users        *mongo.Collection
}

type combinationDoc struct {
	ID           string    `bson:"_id"`
	A            string    `bson:"a"`
	B            string    `bson:"b"`
	Result       string    `bson:"result"`
	Discoverer   string    `bson:"discoverer"`
	DiscoveredAt time.Time `bson:"discovered_at"`
}

type userDoc struct {
	ID               string   `bson:"_id"`
	Name             string   `bson:"name,omitempty"`
	TotalDiscoveries int64    `bson:"total_discoveries"`
	FirstDiscoveries int64    `bson:"first_discoveries"`
	Words            []string `bson:"words,omitempty"`
}

// OpenMongo connects to the shared store and prepares its indexes.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping %s: %v", ErrUnavailable, uri, err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:       client,
		combinations: db.Collection(combinationsCollection),
		users:        db.Collection(usersCollection),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

// ensureIndexes backs the leaderboard sort. The combinations collection
// needs nothing: _id is unique by construction.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "first_discoveries", Value: -1},
			{Key: "total_discoveries", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating leaderboard index: %w", classify(err))
	}
	return nil
}

func (m *Mongo) Combination(ctx context.Context, key CombinationKey) (*CombinationRecord, error) {
	var doc combinationDoc
	err := m.combinations.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching combination %s: %w", key, classify(err))
	}
	rec := recordFromDoc(doc)
	return &rec, nil
}

func (m *Mongo) PutCombinationIfAbsent(ctx context.Context, rec CombinationRecord) (bool, *CombinationRecord, error) {
	_, err := m.combinations.InsertOne(ctx, combinationDoc{
		ID:           rec.Key.String(),
		A:            rec.Key.A,
		B:            rec.Key.B,
		Result:       rec.Result,
		Discoverer:   rec.Discoverer,
		DiscoveredAt: rec.DiscoveredAt.UTC(),
	})
	if err == nil {
		return true, nil, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, nil, fmt.Errorf("inserting combination %s: %w", rec.Key, classify(err))
	}

	// Another replica won the race; its record is authoritative.
	existing, err := m.Combination(ctx, rec.Key)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		return false, nil, fmt.Errorf("combination %s conflicted but is missing", rec.Key)
	}
	return false, existing, nil
}

func (m *Mongo) RecordDiscovery(ctx context.Context, user User, word string, first bool) error {
	firstInc := int64(0)
	if first {
		firstInc = 1
	}

	update := bson.M{
		"$inc":         bson.M{"total_discoveries": int64(1), "first_discoveries": firstInc},
		"$setOnInsert": bson.M{"name": user.Name},
	}
	if word != "" {
		update["$addToSet"] = bson.M{"words": word}
	}

	_, err := m.users.UpdateByID(ctx, user.ID, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("recording discovery for %s: %w", user.ID, classify(err))
	}
	return nil
}

func (m *Mongo) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "first_discoveries", Value: -1},
		{Key: "total_discoveries", Value: -1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", classify(err))
	}
	defer cursor.Close(ctx)

	var entries []LeaderboardEntry
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding leaderboard entry: %w", err)
		}
		entries = append(entries, LeaderboardEntry{
			UserID:           doc.ID,
			Name:             doc.Name,
			FirstDiscoveries: doc.FirstDiscoveries,
			TotalDiscoveries: doc.TotalDiscoveries,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", classify(err))
	}
	return entries, nil
}

func (m *Mongo) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var doc userDoc
	err := m.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, classify(err))
	}
	return &UserRecord{
		LeaderboardEntry: LeaderboardEntry{
			UserID:           doc.ID,
			Name:             doc.Name,
			FirstDiscoveries: doc.FirstDiscoveries,
			TotalDiscoveries: doc.TotalDiscoveries,
		},
		Words: doc.Words,
	}, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func recordFromDoc(doc combinationDoc) CombinationRecord {
	return CombinationRecord{
		Key:          CombinationKey{A: doc.A, B: doc.B},
		Result:       doc.Result,
		Discoverer:   doc.Discoverer,
		DiscoveredAt: doc.DiscoveredAt,
	}
}

// classify wraps transient driver failures in ErrUnavailable so the
// coordinator can retry them; everything else passes through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

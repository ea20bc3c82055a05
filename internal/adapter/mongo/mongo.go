// Package mongo stores family states as documents in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"kittenfeed/internal/domain"
)

// CollectionStates holds one document per family.
const CollectionStates = "family_states"

type stateDoc struct {
	FamilyID  string    `bson:"_id"`
	State     bson.Raw  `bson:"state"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store implements domain.StateRepository on MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ domain.StateRepository = (*Store)(nil)

// Open connects to uri, pings the primary and selects database dbName.
func Open(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{client: client, coll: client.Database(dbName).Collection(CollectionStates)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// LoadState returns the stored document for familyID as JSON, or nil if none
// exists.
func (s *Store) LoadState(ctx context.Context, familyID string) ([]byte, error) {
	var doc stateDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": familyID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(doc.State)
}

// SaveState upserts the document for familyID.
func (s *Store) SaveState(ctx context.Context, familyID string, state []byte) error {
	raw, err := toBSON(state)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx,
		bson.M{"_id": familyID},
		stateDoc{FamilyID: familyID, State: raw, UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	return err
}

// ListFamilies returns stored family ids, most recently updated first.
func (s *Store) ListFamilies(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// toBSON stores the JSON document as a nested BSON document so it stays
// queryable.
func toBSON(state []byte) (bson.Raw, error) {
	var m bson.M
	if err := bson.UnmarshalExtJSON(state, false, &m); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return raw, nil
}

// fromBSON renders relaxed extended JSON, which is plain JSON for the value
// types a state document contains.
func fromBSON(raw bson.Raw) ([]byte, error) {
	b, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/models"
)

// searchFields are the document paths matched by ListFilter.Search.
var searchFields = []string{
	"channel_id",
	"outgoing_space",
	"graph_channel_id",
	"routes.channel_id",
	"routes.outgoing_space",
	"routes.graph_channel_id",
}

// indexedFields back the List filters.
var indexedFields = []string{
	"channel_id",
	"routes.graph_channel_id",
	"provider",
	"routes.provider",
}

// connectionDocument is the stored shape: the model plus its ObjectID.
type connectionDocument struct {
	Id                primitive.ObjectID `bson:"_id,omitempty"`
	models.Connection `bson:",inline"`
}

func (d connectionDocument) toModel() models.Connection {
	c := d.Connection
	c.Id = d.Id.Hex()
	return c
}

// MongoStore keeps connections in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore uses the channels collection of database dbName. The client
// is owned by the store from here on and released by Close.
func NewMongoStore(client *mongo.Client, dbName string, logger *zap.Logger) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(CollectionName),
		logger: logger,
	}
}

// List returns the documents matching filter.
func (s *MongoStore) List(ctx context.Context, filter ListFilter) ([]models.Connection, error) {
	cursor, err := s.coll.Find(ctx, buildMongoFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("find connections: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []connectionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}

	connections := make([]models.Connection, 0, len(docs))
	for _, doc := range docs {
		connections = append(connections, doc.toModel())
	}
	return connections, nil
}

// Insert stores c and returns its ObjectID in hex.
func (s *MongoStore) Insert(ctx context.Context, c *models.Connection) (string, error) {
	doc := connectionDocument{
		Id:         primitive.NewObjectID(),
		Connection: *c,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert connection: %w", err)
	}
	return doc.Id.Hex(), nil
}

// FindByID returns ErrNotFound for unknown or malformed ids.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Connection, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc connectionDocument
	err = s.coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find connection %s: %w", id, err)
	}

	c := doc.toModel()
	return &c, nil
}

// Update sets the patched fields and returns the document after the write.
func (s *MongoStore) Update(ctx context.Context, id string, patch models.ConnectionPatch, updatedAt time.Time) (*models.Connection, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{"$set": buildMongoSet(patch, updatedAt)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc connectionDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update connection %s: %w", id, err)
	}

	c := doc.toModel()
	return &c, nil
}

// Delete returns ErrNotFound when nothing was removed.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("delete connection %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Migrate creates the secondary indexes. Creating an index that already
// exists with the same keys is a no-op on the server.
func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := make([]mongo.IndexModel, 0, len(indexedFields))
	for _, field := range indexedFields {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetName(field + "_1"),
		})
	}

	names, err := s.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", CollectionName, err)
	}
	s.logger.Info("indexes ensured", zap.String("collection", CollectionName), zap.Strings("indexes", names))
	return nil
}

// Ping checks the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func buildMongoFilter(f ListFilter) bson.M {
	filter := bson.M{}
	if f.SourceProvider != "" {
		filter["provider"] = f.SourceProvider
	}
	if f.TargetProvider != "" {
		filter["routes.provider"] = f.TargetProvider
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make(bson.A, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: pattern})
		}
		filter["$or"] = or
	}
	return filter
}

func buildMongoSet(p models.ConnectionPatch, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	if p.Provider != nil {
		set["provider"] = *p.Provider
	}
	if p.ChannelId != nil {
		set["channel_id"] = *p.ChannelId
	}
	if p.OutgoingSpace != nil {
		set["outgoing_space"] = *p.OutgoingSpace
	}
	if p.TeamId != nil {
		set["team_id"] = *p.TeamId
	}
	if p.GraphChannelId != nil {
		set["graph_channel_id"] = *p.GraphChannelId
	}
	if p.Routes != nil {
		set["routes"] = *p.Routes
	}
	return set
}

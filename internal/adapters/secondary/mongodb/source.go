package mongodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type recordSource struct {
	client   *mongo.Client
	database string
	timeout  time.Duration
}

// NewRecordSource connects to the document store and verifies it answers.
func NewRecordSource(ctx context.Context, cfg *config.MongoConfig) (output.RecordSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: MONGODB_URL is not set", domain.ErrSourceUnavailable)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", domain.ErrSourceUnavailable, err)
	}

	src := &recordSource{client: client, database: cfg.Database, timeout: timeout}
	if err := src.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return src, nil
}

func (s *recordSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrSourceUnavailable, err)
	}
	return nil
}

func (s *recordSource) Fetch(ctx context.Context, collection string) ([]domain.Document, error) {
	cursor, err := s.client.Database(s.database).Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: find %s.%s: %v", domain.ErrSourceUnavailable, s.database, collection, err)
	}
	defer cursor.Close(ctx)

	var docs []domain.Document
	for cursor.Next(ctx) {
		var raw bson.D
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, toDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s.%s: %v", domain.ErrSourceUnavailable, s.database, collection, err)
	}
	return docs, nil
}

func (s *recordSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toDocument(raw bson.D) domain.Document {
	doc := make(domain.Document, 0, len(raw))
	for _, e := range raw {
		doc = append(doc, domain.Field{Key: e.Key, Value: toValue(e.Value)})
	}
	return doc
}

// toValue flattens BSON specific types into the scalar kinds a frame holds.
func toValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return f
		}
		return t.String()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

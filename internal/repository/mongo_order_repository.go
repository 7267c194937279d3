package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexacademy/checkout/internal/models"
)

// ConnectMongoDB opens a pooled client and verifies it with a ping
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// MongoOrderRepository stores orders in the "orders" collection
type MongoOrderRepository struct {
	collection *mongo.Collection
	seenKeys   *idempotencyFilter
}

func NewMongoOrderRepository(db *mongo.Database, idempotencyCapacity int) *MongoOrderRepository {
	return &MongoOrderRepository{
		collection: db.Collection("orders"),
		seenKeys:   newIdempotencyFilter(idempotencyCapacity),
	}
}

// CreateIndexes sets up the user history index and the unique idempotency
// index that makes Create safe across replicas.
func (m *MongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, bool, error) {
	key := order.IdempotencyKey
	if key != "" && m.seenKeys.maybeSeen(key) {
		existing, err := m.findByKey(ctx, key)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, false, err
		}
	}

	stored := *order
	prepareOrder(&stored)

	if _, err := m.collection.InsertOne(ctx, stored); err != nil {
		// Another replica won the race on the same key.
		if key != "" && mongo.IsDuplicateKeyError(err) {
			m.seenKeys.add(key)
			existing, ferr := m.findByKey(ctx, key)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert order: %w", err)
	}

	if key != "" {
		m.seenKeys.add(key)
	}
	return &stored, true, nil
}

func (m *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *MongoOrderRepository) findByKey(ctx context.Context, key string) (*models.Order, error) {
	return m.findOne(ctx, bson.M{"idempotencyKey": key})
}

func (m *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := m.collection.FindOne(ctx, filter).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

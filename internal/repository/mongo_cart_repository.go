package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoCartRepository) GetCart(ctx context.Context, owner string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"owner": owner}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	return &cart, nil
}

// SaveCart replaces the owner's cart, creating it on first save. A cart
// without an id adopts the id of whatever document the owner already has, so
// two first saves for one owner both succeed and the later one wins.
func (m *MongoCartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()

	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	err := m.replace(ctx, cart)
	if errors.Is(err, ErrDuplicateKey) {
		// a concurrent first save inserted the owner's cart; replace it instead
		err = m.replace(ctx, cart)
	}
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (m *MongoCartRepository) replace(ctx context.Context, cart *domain.Cart) error {
	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	// a zero id is dropped by omitempty, letting the server keep or assign one
	var saved struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := m.collection.FindOneAndReplace(ctx, bson.M{"owner": cart.Owner}, cart, opts).Decode(&saved)
	if err != nil {
		return translateWriteErr(err)
	}
	cart.ID = saved.ID
	return nil
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	return nil
}

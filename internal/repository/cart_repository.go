package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *mongoCartRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := m.findOne(ctx, bson.M{"owner_id": ownerID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNoCartForUser
	}
	return cart, err
}

func (m *mongoCartRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	cart, err := m.findOne(ctx, bson.M{"_id": id})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCartNotFound
	}
	return cart, err
}

func (m *mongoCartRepository) findOne(ctx context.Context, filter bson.M) (*domain.Cart, error) {
	var cart domain.Cart
	if err := m.collection.FindOne(ctx, filter).Decode(&cart); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// Save replaces the whole document, so a cleared discount disappears from storage.
func (m *mongoCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}

	opts := options.Replace().SetUpsert(true)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *mongoCartRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"owner_id": ownerID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

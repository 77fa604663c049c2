package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{collection: db.Collection(ordersCollection)}
}

func (m *mongoOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var o domain.Order
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (m *mongoOrderRepository) List(ctx context.Context, filter OrderFilter, page domain.Page) ([]domain.Order, int64, error) {
	page = page.Normalize()

	query := bson.M{}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}

	total, err := m.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := m.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := []domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

func (m *mongoOrderRepository) SetPaid(ctx context.Context, id primitive.ObjectID, at time.Time) (*domain.Order, error) {
	// a delivered order keeps its DELIVERED status
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"is_paid":    true,
			"paid_at":    at,
			"updated_at": at,
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", domain.OrderStatusDelivered}},
				domain.OrderStatusDelivered,
				domain.OrderStatusPaid,
			}},
		}}},
	}
	return m.findAndUpdate(ctx, id, update)
}

func (m *mongoOrderRepository) SetDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) (*domain.Order, error) {
	update := bson.M{"$set": bson.M{
		"is_delivered": true,
		"delivered_at": at,
		"updated_at":   at,
		"status":       domain.OrderStatusDelivered,
	}}
	return m.findAndUpdate(ctx, id, update)
}

func (m *mongoOrderRepository) findAndUpdate(ctx context.Context, id primitive.ObjectID, update interface{}) (*domain.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o domain.Order
	if err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return &o, nil
}

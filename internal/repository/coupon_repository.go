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

type mongoCouponRepository struct {
	collection *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) CouponRepository {
	return &mongoCouponRepository{collection: db.Collection(couponsCollection)}
}

func (m *mongoCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	if _, err := m.collection.InsertOne(ctx, coupon); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("coupon %q: %w", coupon.Name, domain.ErrDuplicateCoupon)
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (m *mongoCouponRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coupon, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *mongoCouponRepository) FindActiveByName(ctx context.Context, name string, now time.Time) (*domain.Coupon, error) {
	return m.findOne(ctx, bson.M{
		"name":   name,
		"expiry": bson.M{"$gt": now},
	})
}

func (m *mongoCouponRepository) findOne(ctx context.Context, filter bson.M) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := m.collection.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &c, nil
}

func (m *mongoCouponRepository) List(ctx context.Context, page domain.Page) ([]domain.Coupon, int64, error) {
	page = page.Normalize()

	total, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}

	coupons := []domain.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, 0, fmt.Errorf("failed to decode coupons: %w", err)
	}
	return coupons, total, nil
}

func (m *mongoCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": coupon.ID}, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("coupon %q: %w", coupon.Name, domain.ErrDuplicateCoupon)
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (m *mongoCouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

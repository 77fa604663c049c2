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

type mongoCheckoutStore struct {
	db           *mongo.Database
	products     *mongo.Collection
	orders       *mongo.Collection
	carts        *mongo.Collection
	transactions bool
}

// NewCheckoutStore returns a store that commits inside a multi-document
// transaction when transactions is true (requires a replica set) and falls
// back to a compensating sequence otherwise.
func NewCheckoutStore(db *mongo.Database, transactions bool) CheckoutStore {
	return &mongoCheckoutStore{
		db:           db,
		products:     db.Collection(productsCollection),
		orders:       db.Collection(ordersCollection),
		carts:        db.Collection(cartsCollection),
		transactions: transactions,
	}
}

func (s *mongoCheckoutStore) Commit(ctx context.Context, order *domain.Order, adjustments []domain.InventoryAdjustment, cartID primitive.ObjectID) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if s.transactions {
		return s.commitTx(ctx, order, adjustments, cartID)
	}
	return s.commitSaga(ctx, order, adjustments, cartID)
}

func (s *mongoCheckoutStore) commitTx(ctx context.Context, order *domain.Order, adjustments []domain.InventoryAdjustment, cartID primitive.ObjectID) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.applyInventory(sc, adjustments, 1); err != nil {
			return nil, err
		}
		if _, err := s.orders.InsertOne(sc, order); err != nil {
			return nil, fmt.Errorf("failed to insert order: %w", err)
		}
		if err := s.deleteCart(sc, cartID); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (s *mongoCheckoutStore) commitSaga(ctx context.Context, order *domain.Order, adjustments []domain.InventoryAdjustment, cartID primitive.ObjectID) error {
	var applied []domain.InventoryAdjustment

	return runSaga(ctx, []sagaStep{
		{
			name: "inventory",
			do: func(ctx context.Context) error {
				var err error
				applied, err = s.applyInventory(ctx, adjustments, 1)
				return err
			},
			undo: func(ctx context.Context) error {
				return s.revert(ctx, applied)
			},
		},
		{
			name: "order",
			do: func(ctx context.Context) error {
				if _, err := s.orders.InsertOne(ctx, order); err != nil {
					return fmt.Errorf("failed to insert order: %w", err)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				if _, err := s.orders.DeleteOne(ctx, bson.M{"_id": order.ID}); err != nil {
					return fmt.Errorf("failed to remove order %s: %w", order.ID.Hex(), err)
				}
				return nil
			},
		},
		{
			name: "cart",
			do: func(ctx context.Context) error {
				return s.deleteCart(ctx, cartID)
			},
		},
	})
}

// applyInventory runs one ordered bulk write of $inc updates. sign 1 sells,
// -1 restocks. It returns the prefix of adjustments that were applied.
func (s *mongoCheckoutStore) applyInventory(ctx context.Context, adjustments []domain.InventoryAdjustment, sign int) ([]domain.InventoryAdjustment, error) {
	if len(adjustments) == 0 {
		return nil, nil
	}

	models := make([]mongo.WriteModel, 0, len(adjustments))
	for _, adj := range adjustments {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": adj.ProductID}).
			SetUpdate(bson.M{"$inc": bson.M{
				"quantity": -sign * adj.Quantity,
				"sold":     sign * adj.Quantity,
			}}))
	}

	res, err := s.products.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
			return adjustments[:bwe.WriteErrors[0].Index], fmt.Errorf("%w: %v", domain.ErrInventoryUpdateFailed, err)
		}
		// outcome unknown, nothing is reverted
		return nil, fmt.Errorf("%w: %v", domain.ErrInventoryUpdateFailed, err)
	}

	if sign > 0 && res.MatchedCount < int64(len(adjustments)) {
		// unmatched lines changed nothing, so reverting all of them is safe;
		// the revert batch skips this check for the same reason
		return adjustments, fmt.Errorf("%w: matched %d of %d products",
			domain.ErrInventoryUpdateFailed, res.MatchedCount, len(adjustments))
	}
	return adjustments, nil
}

func (s *mongoCheckoutStore) revert(ctx context.Context, applied []domain.InventoryAdjustment) error {
	if len(applied) == 0 {
		return nil
	}
	if _, err := s.applyInventory(ctx, applied, -1); err != nil {
		return fmt.Errorf("failed to revert inventory: %v", err)
	}
	return nil
}

func (s *mongoCheckoutStore) deleteCart(ctx context.Context, cartID primitive.ObjectID) error {
	res, err := s.carts.DeleteOne(ctx, bson.M{"_id": cartID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if res.DeletedCount == 0 {
		// another checkout consumed the cart first
		return fmt.Errorf("cart %s: %w", cartID.Hex(), domain.ErrCartNotFound)
	}
	return nil
}

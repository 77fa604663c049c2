package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/pricing"
)

const DefaultQuantity = 1

type Cart struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OwnerID                 string             `bson:"owner_id" json:"user"`
	Items                   []CartItem         `bson:"items" json:"cartItems"`
	TotalPrice              float64            `bson:"total_price" json:"totalCartPrice"`
	TotalPriceAfterDiscount *float64           `bson:"total_price_after_discount,omitempty" json:"totalPriceAfterDiscount,omitempty"`
	CreatedAt               time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Price     float64            `bson:"price" json:"price"`
}

func (i CartItem) LineQuantity() int      { return i.Quantity }
func (i CartItem) LineUnitPrice() float64 { return i.Price }

// NewCart returns an empty cart for ownerID.
func NewCart(ownerID string, now time.Time) *Cart {
	return &Cart{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem merges into the line with the same product and color, bumping it by
// one, or appends a new line with the requested quantity.
func (c *Cart) AddItem(productID primitive.ObjectID, color string, price float64, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Color == color {
			c.Items[i].Quantity++
			return c.Recalculate()
		}
	}

	if quantity <= 0 {
		quantity = DefaultQuantity
	}
	c.Items = append(c.Items, CartItem{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		Quantity:  quantity,
		Color:     color,
		Price:     price,
	})
	return c.Recalculate()
}

func (c *Cart) UpdateItemQuantity(itemID primitive.ObjectID, quantity int) error {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return fmt.Errorf("item %s: %w", itemID.Hex(), ErrItemNotFound)
	}

	prev := c.Items[idx].Quantity
	c.Items[idx].Quantity = quantity
	if err := c.Recalculate(); err != nil {
		c.Items[idx].Quantity = prev
		return err
	}
	return nil
}

func (c *Cart) RemoveItem(itemID primitive.ObjectID) error {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return fmt.Errorf("item %s: %w", itemID.Hex(), ErrItemNotFound)
	}

	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return c.Recalculate()
}

// Recalculate recomputes TotalPrice and drops any applied discount.
func (c *Cart) Recalculate() error {
	total, err := pricing.ComputeTotal(c.Items)
	if err != nil {
		return err
	}
	c.TotalPrice = total
	c.TotalPriceAfterDiscount = nil
	return nil
}

// ApplyDiscount sets the discounted price and leaves items and TotalPrice alone.
func (c *Cart) ApplyDiscount(percent int) error {
	discounted, err := pricing.ApplyDiscount(c.TotalPrice, percent)
	if err != nil {
		return err
	}
	c.TotalPriceAfterDiscount = &discounted
	return nil
}

// EffectivePrice is the discounted price when one is set, else TotalPrice.
func (c *Cart) EffectivePrice() float64 {
	if c.TotalPriceAfterDiscount != nil {
		return *c.TotalPriceAfterDiscount
	}
	return c.TotalPrice
}

// Snapshot copies the items so later cart changes never reach an order.
func (c *Cart) Snapshot() []CartItem {
	out := make([]CartItem, len(c.Items))
	copy(out, c.Items)
	return out
}

func (c *Cart) ItemCount() int {
	return len(c.Items)
}

func (c *Cart) indexOf(itemID primitive.ObjectID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OwnerID         string             `bson:"owner_id" json:"user"`
	CartID          primitive.ObjectID `bson:"cart_id" json:"cart"`
	Items           []CartItem         `bson:"items" json:"cartItems"`
	TaxPrice        float64            `bson:"tax_price" json:"taxPrice"`
	ShippingPrice   float64            `bson:"shipping_price" json:"shippingPrice"`
	TotalOrderPrice float64            `bson:"total_order_price" json:"totalOrderPrice"`
	PaymentMethod   PaymentMethod      `bson:"payment_method" json:"paymentMethodType"`
	Status          OrderStatus        `bson:"status" json:"status"`
	IsPaid          bool               `bson:"is_paid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MarkPaid is idempotent on the flag; the timestamp moves to now on every call.
func (o *Order) MarkPaid(now time.Time) {
	o.IsPaid = true
	o.PaidAt = &now
	if o.Status != OrderStatusDelivered {
		o.Status = OrderStatusPaid
	}
	o.UpdatedAt = now
}

func (o *Order) MarkDelivered(now time.Time) {
	o.IsDelivered = true
	o.DeliveredAt = &now
	o.Status = OrderStatusDelivered
	o.UpdatedAt = now
}

// InventoryAdjustment decrements stock and increments sold for one product.
type InventoryAdjustment struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// Adjustments builds one adjustment per order line, in line order.
func (o *Order) Adjustments() []InventoryAdjustment {
	out := make([]InventoryAdjustment, 0, len(o.Items))
	for _, item := range o.Items {
		out = append(out, InventoryAdjustment{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

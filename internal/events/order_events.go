package events

import (
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	OrderCreated   = "order.created"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"

	orderEventVersion = 1
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderPayload struct {
	OrderID         string             `json:"orderId"`
	CartID          string             `json:"cartId"`
	UserID          string             `json:"userId"`
	Status          domain.OrderStatus `json:"status"`
	PaymentMethod   string             `json:"paymentMethod"`
	TotalOrderPrice float64            `json:"totalOrderPrice"`
	Items           []OrderItem        `json:"items"`
	IsPaid          bool               `json:"isPaid"`
	IsDelivered     bool               `json:"isDelivered"`
}

func newOrderEnvelope(name string, o *domain.Order, now time.Time) Envelope[OrderPayload] {
	payload := OrderPayload{
		OrderID:         o.ID.Hex(),
		CartID:          o.CartID.Hex(),
		UserID:          o.OwnerID,
		Status:          o.Status,
		PaymentMethod:   string(o.PaymentMethod),
		TotalOrderPrice: o.TotalOrderPrice,
		Items:           make([]OrderItem, 0, len(o.Items)),
		IsPaid:          o.IsPaid,
		IsDelivered:     o.IsDelivered,
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, OrderItem{
			ProductID: it.ProductID.Hex(),
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return NewEnvelope(name, orderEventVersion, payload.OrderID, now, payload)
}

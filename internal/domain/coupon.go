package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CouponNameMinLen = 3
	CouponNameMaxLen = 100
)

type Coupon struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Expiry    time.Time          `bson:"expiry" json:"expire"`
	Discount  int                `bson:"discount" json:"discount"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Active reports whether the coupon can still be redeemed at now.
func (c *Coupon) Active(now time.Time) bool {
	return c.Expiry.After(now)
}

// Validate trims the name and checks the name length and discount range.
func (c *Coupon) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if n := len([]rune(c.Name)); n < CouponNameMinLen || n > CouponNameMaxLen {
		return fmt.Errorf("%w: name must be %d to %d characters", ErrInvalidCoupon, CouponNameMinLen, CouponNameMaxLen)
	}
	if c.Discount < 1 || c.Discount > 100 {
		return fmt.Errorf("%w: discount must be between 1 and 100", ErrInvalidCoupon)
	}
	if c.Expiry.IsZero() {
		return fmt.Errorf("%w: expiry is required", ErrInvalidCoupon)
	}
	return nil
}

// CouponPatch carries the fields an admin may change; nil means keep.
type CouponPatch struct {
	Name     *string    `json:"name"`
	Expiry   *time.Time `json:"expire"`
	Discount *int       `json:"discount"`
}

func (p CouponPatch) Apply(c *Coupon) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Expiry != nil {
		c.Expiry = *p.Expiry
	}
	if p.Discount != nil {
		c.Discount = *p.Discount
	}
}

package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

type CouponInput struct {
	Name     string    `json:"name"`
	Expiry   time.Time `json:"expire"`
	Discount int       `json:"discount"`
}

type CouponService struct {
	repo   repository.CouponRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) *CouponService {
	return &CouponService{repo: repo, logger: logger, now: time.Now}
}

func (s *CouponService) Create(ctx context.Context, in CouponInput) (*domain.Coupon, error) {
	now := s.now()
	coupon := &domain.Coupon{
		Name:      in.Name,
		Expiry:    in.Expiry,
		Discount:  in.Discount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Info("coupon created", zap.String("coupon", coupon.Name), zap.Int("discount", coupon.Discount))
	return coupon, nil
}

func (s *CouponService) List(ctx context.Context, page domain.Page) ([]domain.Coupon, int64, error) {
	return s.repo.List(ctx, page)
}

func (s *CouponService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CouponService) Update(ctx context.Context, id primitive.ObjectID, patch domain.CouponPatch) (*domain.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(coupon)
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	coupon.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("coupon deleted", zap.String("coupon_id", id.Hex()))
	return nil
}

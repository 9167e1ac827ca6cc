package service

import (
	"context"
	"errors"
	"fmt"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductView is a product as shoppers see it, priced at this moment.
type ProductView struct {
	*model.Product
	CurrentPrice   decimal.Decimal `json:"current_price"`
	DiscountActive bool            `json:"discount_active"`
}

type CatalogService interface {
	ListProducts(ctx context.Context) ([]*ProductView, error)
	GetProduct(ctx context.Context, productID uint) (*ProductView, error)
	SetDiscount(ctx context.Context, principal Principal, productID uint, discount pricing.Discount) (*ProductView, error)
}

type catalogServiceImpl struct {
	log         *zap.Logger
	productRepo repository.ProductRepository
	clock       func() time.Time
}

func NewCatalogService(log *zap.Logger, productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		log:         log.Named("catalog"),
		productRepo: productRepo,
		clock:       time.Now,
	}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context) ([]*ProductView, error) {
	products, err := s.productRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	now := s.clock()
	views := make([]*ProductView, len(products))
	for i, p := range products {
		views[i] = view(p, now)
	}
	return views, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, productID uint) (*ProductView, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	return view(product, s.clock()), nil
}

func (s *catalogServiceImpl) SetDiscount(ctx context.Context, principal Principal, productID uint, discount pricing.Discount) (*ProductView, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	if err := pricing.ApplyDiscount(product, discount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.productRepo.UpdateDiscount(ctx, product); err != nil {
		return nil, fmt.Errorf("update discount: %w", err)
	}

	s.log.Info("product discount updated",
		zap.Uint("product_id", product.ID),
		zap.String("discount_type", string(discount.Type)),
		zap.Bool("discount_set", product.DiscountPrice.Valid))
	return view(product, s.clock()), nil
}

func view(p *model.Product, now time.Time) *ProductView {
	return &ProductView{
		Product:        p,
		CurrentPrice:   pricing.CurrentPrice(p, now),
		DiscountActive: pricing.DiscountActive(p, now),
	}
}

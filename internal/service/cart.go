package service

import (
	"context"
	"errors"
	"fmt"
	"storefront-api/internal/model"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository"
	"time"

	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	AddLine(ctx context.Context, owner model.CartOwner, productID uint, quantity int64) (*model.Cart, error)
	UpdateLine(ctx context.Context, owner model.CartOwner, productID uint, quantity int64) (*model.Cart, error)
	RemoveLine(ctx context.Context, owner model.CartOwner, productID uint) (*model.Cart, error)
	Clear(ctx context.Context, owner model.CartOwner) error
}

type cartServiceImpl struct {
	log         *zap.Logger
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	clock       func() time.Time
}

func NewCartService(log *zap.Logger, productRepo repository.ProductRepository, cartRepo repository.CartRepository) CartService {
	return &cartServiceImpl{
		log:         log.Named("cart"),
		productRepo: productRepo,
		cartRepo:    cartRepo,
		clock:       time.Now,
	}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if !owner.Valid() {
		return emptyCart(), nil
	}

	cart, err := s.cartRepo.GetActiveCartWithLines(ctx, nil, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return cart, nil
}

// AddLine adds quantity to the product's line, creating the cart and line as needed.
func (s *cartServiceImpl) AddLine(ctx context.Context, owner model.CartOwner, productID uint, quantity int64) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !owner.Valid() {
		return nil, fmt.Errorf("%w: cart owner is required", ErrInvalidInput)
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreateActiveCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	total := quantity
	existing, err := s.cartRepo.FindLine(ctx, cart.ID, productID)
	switch {
	case err == nil:
		total += existing.Quantity
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load cart line: %w", err)
	}

	if err := s.storeLine(ctx, cart.ID, product, total); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, owner)
}

// UpdateLine replaces the quantity of a line already in the cart.
func (s *cartServiceImpl) UpdateLine(ctx context.Context, owner model.CartOwner, productID uint, quantity int64) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.activeCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	if _, err := s.cartRepo.FindLine(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("load cart line: %w", err)
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := s.storeLine(ctx, cart.ID, product, quantity); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, owner)
}

func (s *cartServiceImpl) RemoveLine(ctx context.Context, owner model.CartOwner, productID uint) (*model.Cart, error) {
	cart, err := s.activeCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteLine(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("delete cart line: %w", err)
	}

	return s.GetCart(ctx, owner)
}

func (s *cartServiceImpl) Clear(ctx context.Context, owner model.CartOwner) error {
	if !owner.Valid() {
		return nil
	}

	cart, err := s.cartRepo.GetActiveCartWithLines(ctx, nil, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	if err := s.cartRepo.DeleteCart(ctx, nil, cart.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete cart: %w", err)
	}

	return nil
}

func (s *cartServiceImpl) activeCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if !owner.Valid() {
		return nil, ErrCartLineNotFound
	}

	cart, err := s.cartRepo.GetActiveCartWithLines(ctx, nil, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return cart, nil
}

func (s *cartServiceImpl) loadProduct(ctx context.Context, productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	return product, nil
}

// storeLine checks quantity against the product and snapshots its current price.
func (s *cartServiceImpl) storeLine(ctx context.Context, cartID uint, product *model.Product, quantity int64) error {
	if err := pricing.CheckQuantity(product, product.ID, quantity); err != nil {
		return err
	}

	price := pricing.CurrentPrice(product, s.clock())
	line := &model.CartLine{
		CartID:        cartID,
		ProductID:     product.ID,
		Quantity:      quantity,
		PricePerUnit:  price,
		UnitOfMeasure: product.UnitOfMeasure,
		LineTotal:     pricing.LineTotal(quantity, price),
	}
	if err := s.cartRepo.UpsertLine(ctx, line); err != nil {
		return fmt.Errorf("store cart line: %w", err)
	}

	s.log.Debug("cart line stored",
		zap.Uint("cart_id", cartID),
		zap.Uint("product_id", product.ID),
		zap.Int64("quantity", quantity))
	return nil
}

func emptyCart() *model.Cart {
	return &model.Cart{Status: model.CartStatusActive, Lines: []model.CartLine{}}
}

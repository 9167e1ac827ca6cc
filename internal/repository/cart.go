package repository

import (
	"context"
	"errors"
	"storefront-api/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	GetActiveCartWithLines(ctx context.Context, tx *gorm.DB, owner model.CartOwner) (*model.Cart, error)
	GetOrCreateActiveCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	FindLine(ctx context.Context, cartID, productID uint) (*model.CartLine, error)
	UpsertLine(ctx context.Context, line *model.CartLine) error
	DeleteLine(ctx context.Context, cartID, productID uint) error
	DeleteCart(ctx context.Context, tx *gorm.DB, cartID uint) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func ownerScope(owner model.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsGuest() {
			return db.Where("guest_token = ?", owner.GuestToken)
		}
		return db.Where("user_id = ?", owner.UserID)
	}
}

func (r *cartRepoImpl) GetActiveCartWithLines(ctx context.Context, tx *gorm.DB, owner model.CartOwner) (*model.Cart, error) {
	var cart model.Cart
	err := conn(ctx, r.db, tx).
		Scopes(ownerScope(owner)).
		Where("status = ?", model.CartStatusActive).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_lines.id")
		}).
		First(&cart).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &cart, nil
}

func (r *cartRepoImpl) GetOrCreateActiveCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, err := r.GetActiveCartWithLines(ctx, nil, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	cart = &model.Cart{Status: model.CartStatusActive}
	if owner.IsGuest() {
		token := owner.GuestToken
		cart.GuestToken = &token
	} else {
		userID := owner.UserID
		cart.UserID = &userID
	}

	// a concurrent request may have created it first; fall back to reading it
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cart).Error
	if err != nil {
		return nil, err
	}
	if cart.ID == 0 {
		return r.GetActiveCartWithLines(ctx, nil, owner)
	}

	return cart, nil
}

func (r *cartRepoImpl) FindLine(ctx context.Context, cartID, productID uint) (*model.CartLine, error) {
	var line model.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&line).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &line, nil
}

func (r *cartRepoImpl) UpsertLine(ctx context.Context, line *model.CartLine) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":        line.Quantity,
			"price_per_unit":  line.PricePerUnit,
			"unit_of_measure": line.UnitOfMeasure,
			"line_total":      line.LineTotal,
			"updated_at":      time.Now(),
		}),
	}).Create(line).Error
}

func (r *cartRepoImpl) DeleteLine(ctx context.Context, cartID, productID uint) error {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartLine{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteCart removes the cart's lines and then the cart itself.
func (r *cartRepoImpl) DeleteCart(ctx context.Context, tx *gorm.DB, cartID uint) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("cart_id = ?", cartID).Delete(&model.CartLine{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", cartID).Delete(&model.Cart{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

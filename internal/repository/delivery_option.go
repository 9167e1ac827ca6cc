package repository

import (
	"context"
	"storefront-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryOptionRepository interface {
	Seed(ctx context.Context) error
	FindActive(ctx context.Context, optionID uint) (*model.DeliveryOption, error)
	ListActive(ctx context.Context) ([]*model.DeliveryOption, error)
}

type deliveryOptionRepoImpl struct {
	db *gorm.DB
}

func NewDeliveryOptionRepository(db *gorm.DB) DeliveryOptionRepository {
	return &deliveryOptionRepoImpl{
		db: db,
	}
}

func (r *deliveryOptionRepoImpl) Seed(ctx context.Context) error {
	options := []model.DeliveryOption{
		{ID: 1, Name: "Standard (3-5 days)", Cost: decimal.RequireFromString("10.00"), IsActive: true},
		{ID: 2, Name: "Express (next day)", Cost: decimal.RequireFromString("25.00"), IsActive: true},
		{ID: 3, Name: "Store pickup", Cost: decimal.Zero, IsActive: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&options).Error
}

func (r *deliveryOptionRepoImpl) FindActive(ctx context.Context, optionID uint) (*model.DeliveryOption, error) {
	var option model.DeliveryOption
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", optionID, true).
		First(&option).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &option, nil
}

func (r *deliveryOptionRepoImpl) ListActive(ctx context.Context) ([]*model.DeliveryOption, error) {
	var options []*model.DeliveryOption
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("cost, id").
		Find(&options).Error

	if err != nil {
		return nil, err
	}

	return options, nil
}

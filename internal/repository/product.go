package repository

import (
	"context"
	"storefront-api/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Product, error)
	DecrementStockIfSufficient(ctx context.Context, tx *gorm.DB, productID uint, quantity int64) (bool, error)
	UpdateDiscount(ctx context.Context, product *model.Product) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: 1, Name: "Tomatoes", UnitOfMeasure: "kg", PricePerUnit: decimal.RequireFromString("50.00"), StockQuantity: 100, MinOrderQuantity: 1, IsActive: true},
		{ID: 2, Name: "Yam tuber", UnitOfMeasure: "piece", PricePerUnit: decimal.RequireFromString("1200.00"), StockQuantity: 40, MinOrderQuantity: 2, IsActive: true},
		{ID: 3, Name: "Palm oil", UnitOfMeasure: "litre", PricePerUnit: decimal.RequireFromString("1850.50"), StockQuantity: 25, MinOrderQuantity: 1, IsActive: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &product, nil
}

// FindByIDForUpdate reads the product holding its row lock until tx ends.
func (r *productRepoImpl) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error) {
	var product model.Product
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context, activeOnly bool) ([]*model.Product, error) {
	var products []*model.Product
	query := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

// DecrementStockIfSufficient removes quantity units from stock only when that
// leaves a non-negative balance. It reports false when stock was short.
func (r *productRepoImpl) DecrementStockIfSufficient(ctx context.Context, tx *gorm.DB, productID uint, quantity int64) (bool, error) {
	result := conn(ctx, r.db, tx).
		Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// UpdateDiscount writes only the discount columns; stock is owned by
// DecrementStockIfSufficient and must not be written back from a stale read.
func (r *productRepoImpl) UpdateDiscount(ctx context.Context, product *model.Product) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"discount_price":      product.DiscountPrice,
			"discount_percentage": product.DiscountPercentage,
			"discount_starts_at":  product.DiscountStartsAt,
			"discount_ends_at":    product.DiscountEndsAt,
			"updated_at":          now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	product.UpdatedAt = now
	return nil
}

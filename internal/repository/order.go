package repository

import (
	"context"
	"storefront-api/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	CreateAddressSnapshots(ctx context.Context, tx *gorm.DB, snapshots []*model.OrderAddressSnapshot) error
	OrderNumberExists(ctx context.Context, tx *gorm.DB, orderNumber string) (bool, error)

	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]*model.Order, error)

	AttachGatewaySession(ctx context.Context, id uint, reference, details string) error
	MarkPaymentInitFailed(ctx context.Context, id uint, details string) error
	MarkPaid(ctx context.Context, id uint, transactionID, details string) (bool, error)
	MarkPaymentRejected(ctx context.Context, id uint, status model.PaymentStatus, details string) (bool, error)
	UpdateFulfillment(ctx context.Context, id uint, from model.OrderStatus, updates map[string]interface{}) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Create(&items).Error
}

func (r *orderRepoImpl) CreateAddressSnapshots(ctx context.Context, tx *gorm.DB, snapshots []*model.OrderAddressSnapshot) error {
	return conn(ctx, r.db, tx).Create(&snapshots).Error
}

func (r *orderRepoImpl) OrderNumberExists(ctx context.Context, tx *gorm.DB, orderNumber string) (bool, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error

	return count > 0, err
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("order_address_snapshots.id") })
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Scopes(withDetails).
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByCustomer(ctx context.Context, customerID uint) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("ordered_at DESC, id DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) AttachGatewaySession(ctx context.Context, id uint, reference, details string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_gateway_transaction_id": reference,
			"payment_details":                details,
			"updated_at":                     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *orderRepoImpl) MarkPaymentInitFailed(ctx context.Context, id uint, details string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", id, model.PaymentStatusPendingGatewayPayment).
		Updates(map[string]interface{}{
			"payment_status":  model.PaymentStatusFailed,
			"order_status":    model.OrderStatusCancelled,
			"payment_details": details,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// gatewayPayable lists the payment states a verified gateway charge may settle.
// Cash-on-delivery orders (unpaid) are never touched by the gateway.
var gatewayPayable = []model.PaymentStatus{
	model.PaymentStatusPendingGatewayPayment,
	model.PaymentStatusFailed,
	model.PaymentStatusAmountMismatch,
}

// MarkPaid moves a gateway order to paid/processing unless it is already paid.
// It reports false when another delivery got there first.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, id uint, transactionID, details string) (bool, error) {
	return r.transitionPayment(ctx, id, gatewayPayable, map[string]interface{}{
		"payment_status":                 model.PaymentStatusPaid,
		"order_status":                   model.OrderStatusProcessing,
		"payment_gateway_transaction_id": transactionID,
		"payment_details":                details,
		"updated_at":                     time.Now(),
	})
}

// MarkPaymentRejected cancels an order still awaiting its gateway payment,
// with status failed or amount_mismatch.
func (r *orderRepoImpl) MarkPaymentRejected(ctx context.Context, id uint, status model.PaymentStatus, details string) (bool, error) {
	return r.transitionPayment(ctx, id, []model.PaymentStatus{model.PaymentStatusPendingGatewayPayment}, map[string]interface{}{
		"payment_status":  status,
		"order_status":    model.OrderStatusCancelled,
		"payment_details": details,
		"updated_at":      time.Now(),
	})
}

func (r *orderRepoImpl) transitionPayment(ctx context.Context, id uint, from []model.PaymentStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status IN ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) UpdateFulfillment(ctx context.Context, id uint, from model.OrderStatus, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND order_status = ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

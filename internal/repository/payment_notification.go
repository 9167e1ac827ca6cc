package repository

import (
	"context"
	"storefront-api/internal/model"
	"time"

	"gorm.io/gorm"
)

type PaymentNotificationRepository interface {
	Record(ctx context.Context, notification *model.PaymentNotification) error
	ListByReference(ctx context.Context, reference string) ([]*model.PaymentNotification, error)
}

type paymentNotificationRepoImpl struct {
	db *gorm.DB
}

func NewPaymentNotificationRepository(db *gorm.DB) PaymentNotificationRepository {
	return &paymentNotificationRepoImpl{db: db}
}

func (r *paymentNotificationRepoImpl) Record(ctx context.Context, notification *model.PaymentNotification) error {
	if notification.ReceivedAt.IsZero() {
		notification.ReceivedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *paymentNotificationRepoImpl) ListByReference(ctx context.Context, reference string) ([]*model.PaymentNotification, error) {
	var notifications []*model.PaymentNotification
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("id").
		Find(&notifications).Error

	if err != nil {
		return nil, err
	}

	return notifications, nil
}

package repository

import (
	"context"
	"storefront-api/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByUserID(ctx context.Context, userID uint) (*model.Customer, error)
	FindAddress(ctx context.Context, customerID, addressID uint) (*model.Address, error)
	ListAddresses(ctx context.Context, customerID uint) ([]*model.Address, error)
	CreateAddress(ctx context.Context, address *model.Address) error
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{
		db: db,
	}
}

func (r *customerRepoImpl) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepoImpl) FindByUserID(ctx context.Context, userID uint) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&customer).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &customer, nil
}

// FindAddress only matches addresses owned by customerID.
func (r *customerRepoImpl) FindAddress(ctx context.Context, customerID, addressID uint) (*model.Address, error) {
	var address model.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&address).Error

	if err != nil {
		return nil, notFound(err)
	}

	return &address, nil
}

func (r *customerRepoImpl) ListAddresses(ctx context.Context, customerID uint) ([]*model.Address, error) {
	var addresses []*model.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, id").
		Find(&addresses).Error

	if err != nil {
		return nil, err
	}

	return addresses, nil
}

func (r *customerRepoImpl) CreateAddress(ctx context.Context, address *model.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

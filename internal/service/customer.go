package service

import (
	"context"
	"errors"
	"fmt"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
	"strings"
)

type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type AddressInput struct {
	StreetAddress string
	City          string
	State         string
	PostalCode    string
	Country       string
	IsDefault     bool
}

type CustomerService interface {
	CreateProfile(ctx context.Context, principal Principal, in *ProfileInput) (*model.Customer, error)
	GetProfile(ctx context.Context, principal Principal) (*model.Customer, error)
	ListAddresses(ctx context.Context, principal Principal) ([]*model.Address, error)
	CreateAddress(ctx context.Context, principal Principal, in *AddressInput) (*model.Address, error)
	ListDeliveryOptions(ctx context.Context) ([]*model.DeliveryOption, error)
}

type customerServiceImpl struct {
	customerRepo repository.CustomerRepository
	deliveryRepo repository.DeliveryOptionRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository, deliveryRepo repository.DeliveryOptionRepository) CustomerService {
	return &customerServiceImpl{
		customerRepo: customerRepo,
		deliveryRepo: deliveryRepo,
	}
}

func (s *customerServiceImpl) CreateProfile(ctx context.Context, principal Principal, in *ProfileInput) (*model.Customer, error) {
	if strings.TrimSpace(in.FirstName) == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: first name and a valid email are required", ErrInvalidInput)
	}

	_, err := s.customerRepo.FindByUserID(ctx, principal.UserID)
	if err == nil {
		return nil, ErrProfileExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	customer := &model.Customer{
		UserID:    principal.UserID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func (s *customerServiceImpl) GetProfile(ctx context.Context, principal Principal) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, principal.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCustomerProfileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	return customer, nil
}

func (s *customerServiceImpl) ListAddresses(ctx context.Context, principal Principal) ([]*model.Address, error) {
	customer, err := s.GetProfile(ctx, principal)
	if err != nil {
		return nil, err
	}

	return s.customerRepo.ListAddresses(ctx, customer.ID)
}

func (s *customerServiceImpl) CreateAddress(ctx context.Context, principal Principal, in *AddressInput) (*model.Address, error) {
	if strings.TrimSpace(in.StreetAddress) == "" || strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.Country) == "" {
		return nil, fmt.Errorf("%w: street address, city and country are required", ErrInvalidInput)
	}

	customer, err := s.GetProfile(ctx, principal)
	if err != nil {
		return nil, err
	}

	address := &model.Address{
		CustomerID:    customer.ID,
		StreetAddress: strings.TrimSpace(in.StreetAddress),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Country:       strings.TrimSpace(in.Country),
		IsDefault:     in.IsDefault,
	}
	if err := s.customerRepo.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	return address, nil
}

func (s *customerServiceImpl) ListDeliveryOptions(ctx context.Context) ([]*model.DeliveryOption, error) {
	return s.deliveryRepo.ListActive(ctx)
}

package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Find(ctx context.Context, id uint) (*model.Customer, error)
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{db: db}
}

func (r *customerRepoImpl) Find(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).First(&customer, id).Error
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

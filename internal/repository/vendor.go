package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type VendorRepository interface {
	Find(ctx context.Context, id uint) (*model.Vendor, error)
}

type vendorRepoImpl struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepoImpl{db: db}
}

func (r *vendorRepoImpl) Find(ctx context.Context, id uint) (*model.Vendor, error) {
	var vendor model.Vendor
	err := r.db.WithContext(ctx).First(&vendor, id).Error
	if err != nil {
		return nil, err
	}

	return &vendor, nil
}

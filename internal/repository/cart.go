package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type CartRepository interface {
	Add(ctx context.Context, item *model.Cart) error
	Get(ctx context.Context, customerID, productID uint) (*model.Cart, error)
	UpdateQuantity(ctx context.Context, customerID, productID uint, quantity int) error
	Remove(ctx context.Context, customerID, productID uint) error
	Clear(ctx context.Context, customerID uint) error
	ListByCustomer(ctx context.Context, customerID uint) ([]*model.Cart, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{db: db}
}

func (r *cartRepoImpl) Add(ctx context.Context, item *model.Cart) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepoImpl) Get(ctx context.Context, customerID, productID uint) (*model.Cart, error) {
	var item model.Cart
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) UpdateQuantity(ctx context.Context, customerID, productID uint, quantity int) error {
	result := r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Update("quantity", quantity)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepoImpl) Remove(ctx context.Context, customerID, productID uint) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&model.Cart{}).Error
}

func (r *cartRepoImpl) Clear(ctx context.Context, customerID uint) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&model.Cart{}).Error
}

func (r *cartRepoImpl) ListByCustomer(ctx context.Context, customerID uint) ([]*model.Cart, error) {
	var items []*model.Cart
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is the inventory gateway boundary: read stock, decrement
// it at settlement, deactivate sold-out products. Stock is never decremented
// at order creation.
type ProductRepository interface {
	Find(ctx context.Context, id uint) (*model.Product, error)
	FindMany(ctx context.Context, ids []uint) ([]*model.Product, error)
	// FindForUpdate locks the product row for the duration of tx, so that
	// concurrent checkouts for the same product serialize on the stock check.
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.Product, error)
	// DecrementStock subtracts qty under a row lock and deactivates the
	// product when the remaining stock reaches zero. Returns the remaining stock.
	DecrementStock(ctx context.Context, tx *gorm.DB, id uint, qty int) (int, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{db: db}
}

func (r *productRepoImpl) Find(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, ids []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.Product, error) {
	var product model.Product
	err := lockForUpdate(tx.WithContext(ctx)).First(&product, id).Error
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, id uint, qty int) (int, error) {
	var product model.Product
	if err := lockForUpdate(tx.WithContext(ctx)).First(&product, id).Error; err != nil {
		return 0, err
	}

	remaining := product.Stock - qty
	updates := map[string]interface{}{
		"stock":      remaining,
		"updated_at": time.Now(),
	}
	if remaining <= 0 {
		// Sold out: drop from active listings.
		updates["active"] = false
	}

	err := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(updates).Error

	return remaining, err
}

// sqlite has no SELECT ... FOR UPDATE; its single-writer model covers the
// in-memory test databases.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

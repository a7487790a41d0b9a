package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

// SettlementRepository records the per-order settled marker that keeps stock
// settlement idempotent under at-least-once job delivery.
type SettlementRepository interface {
	Create(ctx context.Context, tx *gorm.DB, settlement *model.StockSettlement) error
	Exists(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error)
}

type settlementRepoImpl struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepoImpl{db: db}
}

func (r *settlementRepoImpl) Create(ctx context.Context, tx *gorm.DB, settlement *model.StockSettlement) error {
	return tx.WithContext(ctx).Create(settlement).Error
}

func (r *settlementRepoImpl) Exists(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.StockSettlement{}).
		Where("order_id = ?", orderID).
		Count(&count).Error

	return count > 0, err
}

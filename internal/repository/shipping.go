package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShippingRepository interface {
	// Upsert writes shipping details keyed by order, so a redelivered
	// attach-shipping job overwrites instead of duplicating.
	Upsert(ctx context.Context, details *model.ShippingDetails) error
}

type shippingRepoImpl struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) ShippingRepository {
	return &shippingRepoImpl{db: db}
}

func (r *shippingRepoImpl) Upsert(ctx context.Context, details *model.ShippingDetails) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"address":    details.Address,
			"city":       details.City,
			"state":      details.State,
			"country":    details.Country,
			"phone":      details.Phone,
			"updated_at": time.Now(),
		}),
	}).Create(details).Error
}

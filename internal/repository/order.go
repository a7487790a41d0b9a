package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	Find(ctx context.Context, id uint) (*model.Order, error)
	Items(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error)
	CountByCustomer(ctx context.Context, tx *gorm.DB, customerID uint) (int64, error)
	// PendingReservedQuantity sums the quantities of the product held by
	// orders that are not settled yet. Settlement moves these holds into the
	// stock counter itself; rejected orders are deleted, releasing theirs.
	PendingReservedQuantity(ctx context.Context, tx *gorm.DB, productID uint) (int, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status model.OrderStatus) error
	// Delete removes the order and its items in one transaction. Used as the
	// compensating action when payment fails.
	Delete(ctx context.Context, id uint) error
	ListByCustomer(ctx context.Context, customerID uint) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) Find(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) Items(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) CountByCustomer(ctx context.Context, tx *gorm.DB, customerID uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error

	return count, err
}

func (r *orderRepoImpl) PendingReservedQuantity(ctx context.Context, tx *gorm.DB, productID uint) (int, error) {
	var total int
	err := tx.WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.status IN ?", productID,
			[]model.OrderStatus{model.OrderStatusInitiated, model.OrderStatusVerifying}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&total).Error

	return total, err
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status model.OrderStatus) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *orderRepoImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, id).Error
	})
}

func (r *orderRepoImpl) ListByCustomer(ctx context.Context, customerID uint) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

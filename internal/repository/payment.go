package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	// Create inserts a payment record. The unique payment_ref index rejects a
	// second record for the same reference; callers detect the duplicate via
	// gorm.ErrDuplicatedKey.
	Create(ctx context.Context, payment *model.PaymentDetails) error
	FindByRef(ctx context.Context, paymentRef string) (*model.PaymentDetails, error)
	ExistsByRef(ctx context.Context, paymentRef string) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{db: db}
}

func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.PaymentDetails) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByRef(ctx context.Context, paymentRef string) (*model.PaymentDetails, error) {
	var payment model.PaymentDetails
	err := r.db.WithContext(ctx).
		Where("payment_ref = ?", paymentRef).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) ExistsByRef(ctx context.Context, paymentRef string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PaymentDetails{}).
		Where("payment_ref = ?", paymentRef).
		Count(&count).Error

	return count > 0, err
}

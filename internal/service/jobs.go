package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/queue"
	"marketplace-checkout/internal/repository"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobService implements the async job handlers. Both jobs are replay-safe:
// the queue delivers at least once.
type JobService interface {
	SettleStock(ctx context.Context, orderID uint) error
	AttachShipping(ctx context.Context, orderID uint, shipping *dto.ShippingPayload) error
	Handle(ctx context.Context, env queue.Envelope) error
}

type jobServiceImpl struct {
	db          *gorm.DB
	orders      repository.OrderRepository
	products    repository.ProductRepository
	settlements repository.SettlementRepository
	shipping    repository.ShippingRepository
	logger      *zap.Logger
}

func NewJobService(
	db *gorm.DB,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	settlements repository.SettlementRepository,
	shipping repository.ShippingRepository,
	logger *zap.Logger,
) JobService {
	return &jobServiceImpl{
		db:          db,
		orders:      orders,
		products:    products,
		settlements: settlements,
		shipping:    shipping,
		logger:      logger,
	}
}

// Handle dispatches a queue envelope to the matching job.
func (s *jobServiceImpl) Handle(ctx context.Context, env queue.Envelope) error {
	switch env.Job {
	case queue.JobSettleStock:
		payload, err := queue.UnwrapPayload[queue.SettleStockPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.SettleStock(ctx, payload.OrderID)
	case queue.JobAttachShipping:
		payload, err := queue.UnwrapPayload[queue.AttachShippingPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.AttachShipping(ctx, payload.OrderID, &payload.Shipping)
	}
	return fmt.Errorf("unknown job %q", env.Job)
}

// SettleStock decrements stock for every item of the order and deactivates
// products that hit zero. The settlement marker row, inserted in the same
// transaction as the decrements, guarantees the decrement applies exactly
// once no matter how often the job is delivered.
func (s *jobServiceImpl) SettleStock(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settled, err := s.settlements.Exists(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("check settlement marker: %w", err)
		}
		if settled {
			s.logger.Info("stock already settled", zap.Uint("order_id", orderID))
			return nil
		}

		err = s.settlements.Create(ctx, tx, &model.StockSettlement{
			OrderID:   orderID,
			SettledAt: time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return fmt.Errorf("create settlement marker: %w", err)
		}

		items, err := s.orders.Items(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("load order items: %w", err)
		}

		for _, item := range items {
			remaining, err := s.products.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", item.ProductID, err)
			}
			if remaining <= 0 {
				s.logger.Info("product sold out",
					zap.Uint("product_id", item.ProductID),
					zap.Int("remaining", remaining))
			}
		}

		if err := s.orders.UpdateStatus(ctx, tx, orderID, model.OrderStatusSettled); err != nil {
			return fmt.Errorf("mark order settled: %w", err)
		}

		metrics.SettlementsTotal.Inc()
		s.logger.Info("stock settled", zap.Uint("order_id", orderID), zap.Int("items", len(items)))
		return nil
	})
}

// AttachShipping upserts the order's shipping details. Failures here never
// reach the checkout flow; the queue retries.
func (s *jobServiceImpl) AttachShipping(ctx context.Context, orderID uint, shipping *dto.ShippingPayload) error {
	if _, err := s.orders.Find(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Order was compensated away after a failed payment; nothing to attach.
			s.logger.Info("skip shipping for removed order", zap.Uint("order_id", orderID))
			return nil
		}
		return fmt.Errorf("find order: %w", err)
	}

	err := s.shipping.Upsert(ctx, &model.ShippingDetails{
		OrderID: orderID,
		Address: shipping.Address,
		City:    shipping.City,
		State:   shipping.State,
		Country: shipping.Country,
		Phone:   shipping.Phone,
	})
	if err != nil {
		return fmt.Errorf("upsert shipping details: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/notify"
	"marketplace-checkout/internal/queue"
	"marketplace-checkout/internal/repository"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier delivers post-confirmation messages. Implemented by
// notify.Dispatcher; it never reports back.
type Notifier interface {
	OrderConfirmed(ctx context.Context, c *notify.Confirmation)
}

type PaymentService interface {
	// VerifyTransaction reconciles a transaction-style (card / bank transfer)
	// payment by its gateway reference.
	VerifyTransaction(ctx context.Context, reference string) (*dto.PaymentConfirmation, error)
	// VerifySession reconciles a checkout-session payment by its session id.
	VerifySession(ctx context.Context, sessionID string) (*dto.PaymentConfirmation, error)
}

type paymentServiceImpl struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	customers repository.CustomerRepository
	vendors   repository.VendorRepository
	paystack  gateway.Gateway
	stripe    gateway.Gateway
	jobs      queue.Enqueuer
	notifier  Notifier
	logger    *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	customers repository.CustomerRepository,
	vendors repository.VendorRepository,
	paystack gateway.Gateway,
	stripe gateway.Gateway,
	jobs queue.Enqueuer,
	notifier Notifier,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:        db,
		orders:    orders,
		payments:  payments,
		customers: customers,
		vendors:   vendors,
		paystack:  paystack,
		stripe:    stripe,
		jobs:      jobs,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *paymentServiceImpl) VerifyTransaction(ctx context.Context, reference string) (*dto.PaymentConfirmation, error) {
	return s.verify(ctx, s.paystack, model.PaymentMethodCard, reference)
}

func (s *paymentServiceImpl) VerifySession(ctx context.Context, sessionID string) (*dto.PaymentConfirmation, error) {
	return s.verify(ctx, s.stripe, model.PaymentMethodCheckoutSession, sessionID)
}

// verify is the reconciliation state machine. The idempotency guard runs
// before the gateway call so repeated client polling is a safe no-op; the
// unique payment_ref index decides any race two concurrent calls might win
// past the guard.
func (s *paymentServiceImpl) verify(ctx context.Context, gw gateway.Gateway, method model.PaymentMethod, reference string) (*dto.PaymentConfirmation, error) {
	exists, err := s.payments.ExistsByRef(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("check payment ref: %w", err)
	}
	if exists {
		return nil, apperr.InvalidRequest(apperr.CodeAlreadyProcessed, "payment already processed")
	}

	result, err := gw.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	metrics.VerificationsTotal.WithLabelValues(result.Outcome.String()).Inc()

	orderID := result.Metadata.OrderID
	if orderID == 0 {
		return nil, apperr.MissingResource("no order attached to payment reference %s", reference)
	}

	switch result.Outcome {
	case gateway.OutcomeAbandoned:
		// Order stays; the customer can still complete this payment.
		return nil, apperr.InvalidRequest(apperr.CodePaymentPending,
			"you have a pending transaction, complete your payment")
	case gateway.OutcomeFailed, gateway.OutcomeUnknown:
		// Compensate: reject, then remove the order so its stock reservation
		// is reclaimed. Rejected orders hold no stock, so the reservation is
		// released even if the delete below fails. A fresh checkout is
		// required to retry.
		if err := s.orders.UpdateStatus(ctx, s.db, orderID, model.OrderStatusRejected); err != nil {
			s.logger.Error("mark order rejected", zap.Uint("order_id", orderID), zap.Error(err))
		}
		if err := s.orders.Delete(ctx, orderID); err != nil {
			return nil, fmt.Errorf("remove order %d: %w", orderID, err)
		}
		s.logger.Warn("order rejected",
			zap.Uint("order_id", orderID),
			zap.String("outcome", result.Outcome.String()))
		return nil, apperr.InvalidRequest(apperr.CodePaymentFailed,
			"payment failed, checkout again and complete payment")
	case gateway.OutcomeSuccess:
	}

	paymentRef := result.Reference
	if paymentRef == "" {
		paymentRef = reference
	}
	channel := result.Channel
	if channel == "" {
		channel = string(method)
	}

	err = s.payments.Create(ctx, &model.PaymentDetails{
		OrderID:       orderID,
		PaymentRef:    paymentRef,
		PaymentMethod: model.PaymentMethod(channel),
		Amount:        result.Amount,
		Status:        model.PaymentStatusSuccess,
		PaidAt:        result.PaidAt,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent verification got here first.
			return nil, apperr.InvalidRequest(apperr.CodeAlreadyProcessed, "payment already processed")
		}
		return nil, fmt.Errorf("create payment details: %w", err)
	}

	if err := s.orders.UpdateStatus(ctx, s.db, orderID, model.OrderStatusVerifying); err != nil {
		s.logger.Error("mark order verifying", zap.Uint("order_id", orderID), zap.Error(err))
	}

	// Settlement is deferred to the worker; the job is idempotent, so
	// redelivery is harmless.
	if err := s.jobs.Enqueue(ctx, queue.JobSettleStock,
		strconv.FormatUint(uint64(orderID), 10),
		queue.SettleStockPayload{OrderID: orderID}); err != nil {
		s.logger.Error("enqueue stock settlement",
			zap.Uint("order_id", orderID),
			zap.Error(err))
	}

	s.notifier.OrderConfirmed(ctx, s.buildConfirmation(ctx, orderID, result, channel))

	return &dto.PaymentConfirmation{
		Confirmed:  true,
		OrderID:    orderID,
		PickupCode: result.Metadata.PickupCode,
	}, nil
}

// buildConfirmation gathers the message ingredients on a best-effort basis:
// a lookup failure degrades the message, never the confirmation.
func (s *paymentServiceImpl) buildConfirmation(ctx context.Context, orderID uint, result *gateway.VerifyResult, channel string) *notify.Confirmation {
	confirmation := &notify.Confirmation{
		CustomerID:    result.Metadata.CustomerID,
		CustomerEmail: result.CustomerEmail,
		OrderID:       orderID,
		PickupCode:    result.Metadata.PickupCode,
		Amount:        result.Amount,
		Channel:       channel,
	}

	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		s.logger.Warn("load order for confirmation", zap.Uint("order_id", orderID), zap.Error(err))
		return confirmation
	}
	confirmation.CustomerID = order.CustomerID
	confirmation.Amount = order.TotalAmount

	if confirmation.CustomerEmail == "" {
		if customer, err := s.customers.Find(ctx, order.CustomerID); err == nil {
			confirmation.CustomerEmail = customer.Email
		}
	}

	items, err := s.orders.Items(ctx, s.db, orderID)
	if err != nil || len(items) == 0 {
		return confirmation
	}
	vendor, err := s.vendors.Find(ctx, items[0].VendorID)
	if err != nil {
		return confirmation
	}
	confirmation.SellerName = vendor.FirstName + " " + vendor.LastName
	confirmation.PickupBy = vendor.OrderTime
	return confirmation
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/queue"
	"marketplace-checkout/internal/repository"

	"gorm.io/gorm"
)

func newPaymentService(db *gorm.DB, paystack, stripe *fakeGateway, q *fakeQueue, n *fakeNotifier) PaymentService {
	return NewPaymentService(
		db,
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewVendorRepository(db),
		paystack,
		stripe,
		q,
		n,
		testLogger(),
	)
}

func successResult(orderID, customerID uint, pickupCode string, amount int64) *gateway.VerifyResult {
	paidAt := time.Now().UTC()
	return &gateway.VerifyResult{
		Outcome:       gateway.OutcomeSuccess,
		Reference:     "ref-1",
		Amount:        amount,
		Channel:       "card",
		PaidAt:        &paidAt,
		CustomerEmail: "buyer@example.com",
		Metadata: gateway.Metadata{
			OrderID:    orderID,
			CustomerID: customerID,
			PickupCode: pickupCode,
		},
	}
}

func TestVerifyAlreadyProcessed(t *testing.T) {
	db := newTestDB(t)
	paystack := &fakeGateway{}
	svc := newPaymentService(db, paystack, &fakeGateway{}, &fakeQueue{}, &fakeNotifier{})
	customer := seedCustomer(t, db, "buyer@example.com")
	order := seedOrder(t, db, customer.ID, 1, 250000, "AAAA1111")

	now := time.Now().UTC()
	err := db.Create(&model.PaymentDetails{
		OrderID:       order.ID,
		PaymentRef:    "ref-1",
		PaymentMethod: model.PaymentMethodCard,
		Amount:        250000,
		Status:        model.PaymentStatusSuccess,
		PaidAt:        &now,
	}).Error
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	_, err = svc.VerifyTransaction(context.Background(), "ref-1")
	wantInvalidRequest(t, err, apperr.CodeAlreadyProcessed)

	// The guard fires before the vendor is ever asked.
	if paystack.verifyCalls != 0 {
		t.Errorf("gateway verify calls = %d, want 0", paystack.verifyCalls)
	}
}

func TestVerifyAbandoned(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "buyer@example.com")
	order := seedOrder(t, db, customer.ID, 1, 250000, "AAAA1111")
	paystack := &fakeGateway{verifyRes: &gateway.VerifyResult{
		Outcome:  gateway.OutcomeAbandoned,
		Metadata: gateway.Metadata{OrderID: order.ID},
	}}
	q := &fakeQueue{}
	svc := newPaymentService(db, paystack, &fakeGateway{}, q, &fakeNotifier{})

	_, err := svc.VerifyTransaction(context.Background(), "ref-1")
	wantInvalidRequest(t, err, apperr.CodePaymentPending)

	// Order stays; the buyer can still finish paying.
	if got := countRows(t, db, &model.Order{}); got != 1 {
		t.Errorf("orders = %d, want 1", got)
	}
	if got := countRows(t, db, &model.PaymentDetails{}); got != 0 {
		t.Errorf("payments = %d, want 0", got)
	}
	if len(q.jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(q.jobs))
	}
}

func TestVerifyFailureRemovesOrder(t *testing.T) {
	outcomes := []struct {
		name    string
		outcome gateway.Outcome
	}{
		{"failed", gateway.OutcomeFailed},
		{"unknown", gateway.OutcomeUnknown},
	}

	for _, tt := range outcomes {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			customer := seedCustomer(t, db, "buyer@example.com")
			vendor := seedVendor(t, db)
			product := seedProduct(t, db, vendor.ID, "Honey 500g", 250000, 10)
			order := seedOrder(t, db, customer.ID, 1, 250000, "AAAA1111")
			seedOrderItem(t, db, order.ID, product.ID, vendor.ID, 1, 250000)

			paystack := &fakeGateway{verifyRes: &gateway.VerifyResult{
				Outcome:  tt.outcome,
				Metadata: gateway.Metadata{OrderID: order.ID},
			}}
			svc := newPaymentService(db, paystack, &fakeGateway{}, &fakeQueue{}, &fakeNotifier{})

			_, err := svc.VerifyTransaction(context.Background(), "ref-1")
			wantInvalidRequest(t, err, apperr.CodePaymentFailed)

			if got := countRows(t, db, &model.Order{}); got != 0 {
				t.Errorf("orders = %d, want 0", got)
			}
			if got := countRows(t, db, &model.OrderItem{}); got != 0 {
				t.Errorf("order items = %d, want 0", got)
			}
			if got := countRows(t, db, &model.PaymentDetails{}); got != 0 {
				t.Errorf("payments = %d, want 0", got)
			}
		})
	}
}

func TestVerifySuccess(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "buyer@example.com")
	vendor := seedVendor(t, db)
	product := seedProduct(t, db, vendor.ID, "Honey 500g", 250000, 10)
	order := seedOrder(t, db, customer.ID, 1, 250000, "AAAA1111")
	seedOrderItem(t, db, order.ID, product.ID, vendor.ID, 1, 250000)

	paystack := &fakeGateway{verifyRes: successResult(order.ID, customer.ID, "AAAA1111", 250000)}
	q := &fakeQueue{}
	notifier := &fakeNotifier{}
	svc := newPaymentService(db, paystack, &fakeGateway{}, q, notifier)

	confirmation, err := svc.VerifyTransaction(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if !confirmation.Confirmed || confirmation.OrderID != order.ID || confirmation.PickupCode != "AAAA1111" {
		t.Errorf("confirmation = %+v", confirmation)
	}

	var payment model.PaymentDetails
	if err := db.First(&payment).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.PaymentRef != "ref-1" || payment.Amount != 250000 {
		t.Errorf("payment = %+v", payment)
	}
	if payment.Status != model.PaymentStatusSuccess {
		t.Errorf("payment status = %q", payment.Status)
	}

	var got model.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if got.Status != model.OrderStatusVerifying {
		t.Errorf("order status = %s", got.Status)
	}

	settles := q.byJob(queue.JobSettleStock)
	if len(settles) != 1 {
		t.Fatalf("settle jobs = %d, want 1", len(settles))
	}
	payload, ok := settles[0].payload.(queue.SettleStockPayload)
	if !ok || payload.OrderID != order.ID {
		t.Errorf("settle payload = %+v", settles[0].payload)
	}

	if len(notifier.confirmations) != 1 {
		t.Fatalf("confirmations = %d, want 1", len(notifier.confirmations))
	}
	c := notifier.confirmations[0]
	if c.CustomerEmail != "buyer@example.com" || c.OrderID != order.ID {
		t.Errorf("confirmation = %+v", c)
	}
	if c.SellerName != "Ada Obi" || c.PickupBy != "17:00" {
		t.Errorf("seller = %q, pickup by = %q", c.SellerName, c.PickupBy)
	}
	if c.Amount != 250000 {
		t.Errorf("amount = %d", c.Amount)
	}
}

func TestVerifySuccessReplayRejected(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "buyer@example.com")
	order := seedOrder(t, db, customer.ID, 1, 250000, "AAAA1111")

	paystack := &fakeGateway{verifyRes: successResult(order.ID, customer.ID, "AAAA1111", 250000)}
	svc := newPaymentService(db, paystack, &fakeGateway{}, &fakeQueue{}, &fakeNotifier{})

	if _, err := svc.VerifyTransaction(context.Background(), "ref-1"); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	_, err := svc.VerifyTransaction(context.Background(), "ref-1")
	wantInvalidRequest(t, err, apperr.CodeAlreadyProcessed)

	if got := countRows(t, db, &model.PaymentDetails{}); got != 1 {
		t.Errorf("payments = %d, want 1", got)
	}
}

func TestVerifyNoOrderInMetadata(t *testing.T) {
	db := newTestDB(t)
	paystack := &fakeGateway{verifyRes: &gateway.VerifyResult{Outcome: gateway.OutcomeSuccess}}
	svc := newPaymentService(db, paystack, &fakeGateway{}, &fakeQueue{}, &fakeNotifier{})

	_, err := svc.VerifyTransaction(context.Background(), "ref-1")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindMissingResource {
		t.Fatalf("want missing resource, got %v", err)
	}
}

func TestVerifyGatewayError(t *testing.T) {
	db := newTestDB(t)
	paystack := &fakeGateway{verifyErr: apperr.Gateway("paystack", errors.New("timeout"))}
	q := &fakeQueue{}
	svc := newPaymentService(db, paystack, &fakeGateway{}, q, &fakeNotifier{})

	_, err := svc.VerifyTransaction(context.Background(), "ref-1")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindGateway {
		t.Fatalf("want gateway error, got %v", err)
	}
	if len(q.jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(q.jobs))
	}
}

func TestVerifySessionUsesStripe(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "buyer@example.com")
	order := seedOrder(t, db, customer.ID, 1, 250000, "AAAA1111")

	stripe := &fakeGateway{verifyRes: successResult(order.ID, customer.ID, "AAAA1111", 250000)}
	paystack := &fakeGateway{}
	svc := newPaymentService(db, paystack, stripe, &fakeQueue{}, &fakeNotifier{})

	if _, err := svc.VerifySession(context.Background(), "cs_test_123"); err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if stripe.verifyCalls != 1 || paystack.verifyCalls != 0 {
		t.Errorf("verify calls: stripe=%d paystack=%d", stripe.verifyCalls, paystack.verifyCalls)
	}
}

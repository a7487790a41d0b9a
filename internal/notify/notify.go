package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/mailer"
	"marketplace-checkout/internal/metrics"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Confirmation is everything the dispatcher needs to compose the
// order-confirmed messages.
type Confirmation struct {
	CustomerID    uint
	CustomerEmail string
	OrderID       uint
	PickupCode    string
	Amount        int64
	Channel       string
	SellerName    string
	// Optional "head to the store by" time.
	PickupBy string
}

// Dispatcher delivers order confirmations over two independent best-effort
// channels: direct email and a push request to the notification service.
// Failures on either channel are logged and never reach the caller; a
// confirmed payment is never undone by a notification outage.
type Dispatcher struct {
	mailer     mailer.Mailer
	httpClient *http.Client
	cfg        config.Notification
	logger     *zap.Logger
}

func NewDispatcher(cfg config.Notification, m mailer.Mailer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mailer: m,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

func (d *Dispatcher) OrderConfirmed(ctx context.Context, c *Confirmation) {
	if c.CustomerEmail != "" {
		if err := d.mailer.Send(ctx, c.CustomerEmail, "Order confirmed", composeConfirmation(c)); err != nil {
			metrics.NotificationFailures.WithLabelValues("email").Inc()
			d.logger.Error("order confirmation email failed",
				zap.Uint("order_id", c.OrderID),
				zap.Error(err))
		}
	}

	// Fire-and-forget: the push runs detached from the request context, so
	// neither its failure nor the caller's cancellation is observable here.
	go d.pushOrderConfirm(context.Background(), c.CustomerID, c.OrderID)
}

func (d *Dispatcher) pushOrderConfirm(ctx context.Context, customerID, orderID uint) {
	if !d.cfg.Enabled || customerID == 0 {
		d.logger.Info("skipping order-confirm push",
			zap.Bool("enabled", d.cfg.Enabled),
			zap.Uint("user_id", customerID))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	payload := map[string]interface{}{
		"user_id": strconv.FormatUint(uint64(customerID), 10),
		"order": map[string]string{
			"id":     strconv.FormatUint(uint64(orderID), 10),
			"status": "confirmed",
		},
		"data": map[string]string{
			"type":     "order-confirm",
			"order_id": strconv.FormatUint(uint64(orderID), 10),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("marshal push payload", zap.Error(err))
		return
	}

	url := strings.TrimRight(d.cfg.ServiceURL, "/") + "/notify/order-confirm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		d.logger.Error("build push request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("push").Inc()
		d.logger.Error("order-confirm push failed",
			zap.Uint("order_id", orderID),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		metrics.NotificationFailures.WithLabelValues("push").Inc()
		d.logger.Error("order-confirm push rejected",
			zap.Uint("order_id", orderID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(b)))
		return
	}

	d.logger.Info("order-confirm push sent",
		zap.Uint("order_id", orderID),
		zap.Int("status", resp.StatusCode))
}

func composeConfirmation(c *Confirmation) string {
	seller := c.SellerName
	if seller == "" {
		seller = "the store"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nYour order has been placed for %s.\n", seller)
	fmt.Fprintf(&b, "Pickup code: %s\n", c.PickupCode)
	fmt.Fprintf(&b, "Amount: %s\n", formatAmount(c.Amount))
	fmt.Fprintf(&b, "Payment method: %s\n", c.Channel)
	if c.PickupBy != "" {
		fmt.Fprintf(&b, "Please head to the store by: %s\n", c.PickupBy)
	}
	b.WriteString("\nThank you for shopping with us.")
	return b.String()
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/config"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// stripeClient drives the checkout-session backend: create a hosted session,
// redirect the buyer, retrieve the session to verify payment afterwards.
type stripeClient struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
	successURL string
	cancelURL  string
}

func NewStripeClient(cfg *config.Stripe) Gateway {
	return &stripeClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

type stripeSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Created       int64             `json:"created"`
	Metadata      map[string]string `json:"metadata"`
	CustomerEmail string            `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

func (c *stripeClient) Initialize(ctx context.Context, initReq *InitializeRequest) (*Initiation, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(initReq.Currency))
	form.Set("line_items[0][price_data][product_data][name]", fmt.Sprintf("Order %s", initReq.Metadata.PickupCode))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(initReq.Amount, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("customer_email", initReq.Email)
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(initReq.Metadata.OrderID), 10))
	form.Set("metadata[customer_id]", strconv.FormatUint(uint64(initReq.Metadata.CustomerID), 10))
	form.Set("metadata[pickup_code]", initReq.Metadata.PickupCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var session stripeSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}

	return &Initiation{
		Reference:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (c *stripeClient) Verify(ctx context.Context, sessionID string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseApiURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var session stripeSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}

	outcome := mapStripePaymentStatus(session.PaymentStatus)

	var paidAt *time.Time
	if outcome == OutcomeSuccess && session.Created > 0 {
		t := time.Unix(session.Created, 0).UTC()
		paidAt = &t
	}

	email := session.CustomerDetails.Email
	if email == "" {
		email = session.CustomerEmail
	}

	return &VerifyResult{
		Outcome:       outcome,
		Reference:     session.ID,
		Amount:        session.AmountTotal,
		Channel:       "card",
		PaidAt:        paidAt,
		CustomerEmail: email,
		Metadata:      metadataFromStrings(session.Metadata),
	}, nil
}

func (c *stripeClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Gateway("stripe", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return apperr.Gateway("stripe", fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Gateway("stripe", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// "unpaid" means the buyer left the hosted page without paying, so the order
// stays open for another attempt.
func mapStripePaymentStatus(paymentStatus string) Outcome {
	switch paymentStatus {
	case "paid", "no_payment_required":
		return OutcomeSuccess
	case "unpaid":
		return OutcomeAbandoned
	default:
		return OutcomeUnknown
	}
}

func metadataFromStrings(m map[string]string) Metadata {
	orderID, _ := strconv.ParseUint(m["order_id"], 10, 64)
	customerID, _ := strconv.ParseUint(m["customer_id"], 10, 64)
	return Metadata{
		OrderID:    uint(orderID),
		CustomerID: uint(customerID),
		PickupCode: m["pickup_code"],
	}
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/config"
	"net/http"
	"time"
)

// paystackClient drives the transaction-style backend: initialize a
// transaction, redirect the buyer, verify by reference afterwards.
type paystackClient struct {
	httpClient  *http.Client
	baseApiURL  string
	secretKey   string
	callbackURL string
}

func NewPaystackClient(cfg *config.Paystack) Gateway {
	return &paystackClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:  cfg.BaseApiURL,
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
	}
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status    string   `json:"status"`
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	PaidAt    string   `json:"paid_at"`
	Channel   string   `json:"channel"`
	Metadata  Metadata `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (c *paystackClient) Initialize(ctx context.Context, initReq *InitializeRequest) (*Initiation, error) {
	payload := map[string]interface{}{
		"email":        initReq.Email,
		"amount":       initReq.Amount,
		"currency":     initReq.Currency,
		"callback_url": c.callbackURL,
		"metadata":     initReq.Metadata,
	}
	if len(initReq.Channels) > 0 {
		payload["channels"] = initReq.Channels
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/transaction/initialize",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	var result paystackEnvelope[paystackInitData]
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if !result.Status {
		return nil, apperr.Gateway("paystack", fmt.Errorf("initialize rejected: %s", result.Message))
	}

	return &Initiation{
		Reference:   result.Data.Reference,
		RedirectURL: result.Data.AuthorizationURL,
	}, nil
}

func (c *paystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.baseApiURL, reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var result paystackEnvelope[paystackVerifyData]
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if !result.Status {
		return nil, apperr.Gateway("paystack", fmt.Errorf("verify rejected: %s", result.Message))
	}

	var paidAt *time.Time
	if result.Data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, result.Data.PaidAt); err == nil {
			paidAt = &t
		}
	}

	return &VerifyResult{
		Outcome:       mapPaystackStatus(result.Data.Status),
		Reference:     result.Data.Reference,
		Amount:        result.Data.Amount,
		Channel:       result.Data.Channel,
		PaidAt:        paidAt,
		CustomerEmail: result.Data.Customer.Email,
		Metadata:      result.Data.Metadata,
	}, nil
}

func (c *paystackClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Gateway("paystack", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return apperr.Gateway("paystack", fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Gateway("paystack", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Transactions the buyer has not finished yet ("ongoing", "pending" and
// friends) count as abandoned: the order stays and payment can still be
// completed. Anything unrecognized is unknown.
func mapPaystackStatus(status string) Outcome {
	switch status {
	case "success":
		return OutcomeSuccess
	case "failed", "reversed":
		return OutcomeFailed
	case "abandoned", "ongoing", "pending", "processing", "queued":
		return OutcomeAbandoned
	default:
		return OutcomeUnknown
	}
}

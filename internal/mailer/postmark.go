package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"marketplace-checkout/internal/config"
	"net/http"
	"time"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, textBody string) error
}

type postmarkClient struct {
	httpClient  *http.Client
	baseURL     string
	serverToken string
	fromEmail   string
}

func NewPostmarkClient(cfg *config.Mailer) Mailer {
	return &postmarkClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		serverToken: cfg.ServerToken,
		fromEmail:   cfg.FromEmail,
	}
}

func (c *postmarkClient) Send(ctx context.Context, to, subject, textBody string) error {
	payload := map[string]string{
		"From":     c.fromEmail,
		"To":       to,
		"Subject":  subject,
		"TextBody": textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/email",
		bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("postmark error %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

package queue

import (
	"encoding/json"
	"fmt"
	"marketplace-checkout/internal/dto"
	"time"
)

const (
	JobSettleStock    = "settle_stock"
	JobAttachShipping = "attach_shipping_details"
)

const (
	TopicSettleStock    = "checkout.jobs.settle-stock"
	TopicAttachShipping = "checkout.jobs.attach-shipping"
)

func Topics() []string {
	return []string{TopicSettleStock, TopicAttachShipping}
}

func topicFor(job string) (string, error) {
	switch job {
	case JobSettleStock:
		return TopicSettleStock, nil
	case JobAttachShipping:
		return TopicAttachShipping, nil
	}
	return "", fmt.Errorf("unknown job %q", job)
}

// Envelope wraps every queued job. JobID feeds redelivery dedup; the payload
// is job-specific.
type Envelope struct {
	JobID      string          `json:"job_id"`
	Job        string          `json:"job"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type SettleStockPayload struct {
	OrderID uint `json:"order_id"`
}

type AttachShippingPayload struct {
	OrderID  uint                `json:"order_id"`
	Shipping dto.ShippingPayload `json:"shipping"`
}

func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

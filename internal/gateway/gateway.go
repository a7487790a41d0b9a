package gateway

import (
	"context"
	"time"
)

// Outcome is the canonical, gateway-agnostic payment result. Every vendor
// status maps to exactly one value; anything a backend does not recognize
// maps to OutcomeUnknown, never to OutcomeSuccess.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeFailed
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeUnknown:
		return "unknown"
	}
	return "unknown"
}

// Metadata rides along with every payable session and comes back on
// verification, tying a gateway reference to the order it pays for.
type Metadata struct {
	OrderID    uint   `json:"order_id,string"`
	CustomerID uint   `json:"customer_id,string"`
	PickupCode string `json:"pickup_code"`
}

type InitializeRequest struct {
	// Minor currency units.
	Amount   int64
	Currency string
	Email    string
	Metadata Metadata
	// Channel restriction for backends that support it (card, bank_transfer).
	Channels []string
}

type Initiation struct {
	Reference   string
	RedirectURL string
}

type VerifyResult struct {
	Outcome       Outcome
	Reference     string
	Amount        int64
	Channel       string
	PaidAt        *time.Time
	CustomerEmail string
	Metadata      Metadata
}

// Gateway is the capability set shared by all payment backends: create a
// payable session and verify a previously created one.
type Gateway interface {
	Initialize(ctx context.Context, req *InitializeRequest) (*Initiation, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

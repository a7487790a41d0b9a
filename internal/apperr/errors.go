package apperr

import "fmt"

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInvalidRequest Kind = iota + 1 // user-correctable, 4xx
	KindMissingResource                // 404
	KindGateway                        // payment vendor / network failure, retryable
)

// Machine-readable codes for the user-correctable failures the checkout
// and reconciliation flows can produce.
const (
	CodeEmptyCart         = "empty_cart"
	CodeInsufficientStock = "insufficient_stock"
	CodeAlreadyProcessed  = "already_processed"
	CodePaymentPending    = "payment_pending"
	CodePaymentFailed     = "payment_failed"
	CodeNotFound          = "not_found"
	CodeBadRequest        = "bad_request"
)

type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidRequest(code, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func MissingResource(format string, args ...any) *Error {
	return &Error{Kind: KindMissingResource, Code: CodeNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Gateway wraps a vendor or network failure during a payment call. Callers
// must never treat it as success, partial or otherwise.
func Gateway(vendor string, err error) *Error {
	return &Error{Kind: KindGateway, Code: "gateway_error", Msg: fmt.Sprintf("%s gateway error", vendor), Err: err}
}

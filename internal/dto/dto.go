package dto

import "time"

type AddCartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CartItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type CartSummary struct {
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalAmount int64      `json:"total_amount"`
}

type ShippingPayload struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

type CheckoutRequest struct {
	PaymentMethod string          `json:"payment_method"`
	Shipping      ShippingPayload `json:"shipping_details"`
}

type PaymentInitiation struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
	OrderID     uint   `json:"order_id"`
	PickupCode  string `json:"pickup_code"`
}

type OrderSummary struct {
	ID                  uint      `json:"id"`
	CustomerOrderNumber int       `json:"customer_order_number"`
	TotalAmount         int64     `json:"total_amount"`
	PickupCode          string    `json:"pickup_code"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

// CheckoutResponse carries either a payment initiation (gateway methods,
// payment still outstanding) or the order itself (manual method).
type CheckoutResponse struct {
	Payment *PaymentInitiation `json:"payment,omitempty"`
	Order   *OrderSummary      `json:"order,omitempty"`
}

type OrderItemView struct {
	ProductID uint  `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	LineTotal int64 `json:"line_total"`
}

type OrderHistory struct {
	OrderSummary
	Items []OrderItemView `json:"items"`
}

type PaymentConfirmation struct {
	Confirmed  bool   `json:"confirmed"`
	OrderID    uint   `json:"order_id"`
	PickupCode string `json:"pickup_code"`
}

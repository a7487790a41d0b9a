package model

import "time"

type OrderStatus string

const (
	OrderStatusInitiated OrderStatus = "INITIATED"
	OrderStatusVerifying OrderStatus = "VERIFYING"
	OrderStatusSettled   OrderStatus = "SETTLED"
	// Terminal failure state. Rejected orders are removed by the
	// reconciliation engine to reclaim their stock reservation; a new
	// checkout is required to retry.
	OrderStatusRejected OrderStatus = "REJECTED"
)

type PaymentMethod string

const (
	PaymentMethodCard            PaymentMethod = "card"
	PaymentMethodBankTransfer    PaymentMethod = "bank_transfer"
	PaymentMethodCheckoutSession PaymentMethod = "checkout_session"
	PaymentMethodManual          PaymentMethod = "manual"
)

const PaymentStatusSuccess = "SUCCESS"

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:128;uniqueIndex;not null"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Vendor struct {
	ID        uint   `gorm:"primaryKey"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
	// Latest pickup time of the day, "HH:MM". Surfaced in confirmation messages.
	OrderTime string `gorm:"size:8"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID       uint   `gorm:"primaryKey"`
	VendorID uint   `gorm:"index;not null"`
	Name     string `gorm:"size:128;not null"`
	// Unit price in minor currency units.
	Price     int64 `gorm:"not null"`
	Stock     int   `gorm:"not null"`
	Active    bool  `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Cart struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"uniqueIndex:idx_cart_customer_product;not null"`
	ProductID  uint `gorm:"uniqueIndex:idx_cart_customer_product;not null"`
	Quantity   int  `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Order struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"index;uniqueIndex:idx_order_customer_number;not null"`
	// Sequential per customer; the unique index backstops concurrent
	// checkouts by the same customer.
	CustomerOrderNumber int `gorm:"uniqueIndex:idx_order_customer_number;not null"`
	// Computed at validation time, never recomputed from catalog prices.
	TotalAmount int64       `gorm:"not null"`
	PickupCode  string      `gorm:"size:16;uniqueIndex;not null"`
	Status      OrderStatus `gorm:"size:16;index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	// Denormalized from the product at order time.
	VendorID uint `gorm:"index;not null"`
	Quantity int  `gorm:"not null"`
	// Captured at validation time; later catalog price changes never
	// affect historical orders.
	UnitPrice int64 `gorm:"not null"`
	CreatedAt time.Time
}

// PaymentDetails is created once per completed payment attempt. The unique
// payment_ref is the idempotency anchor for reconciliation.
type PaymentDetails struct {
	ID            uint          `gorm:"primaryKey"`
	OrderID       uint          `gorm:"index;not null"`
	PaymentRef    string        `gorm:"size:128;uniqueIndex;not null"`
	PaymentMethod PaymentMethod `gorm:"size:32;not null"`
	Amount        int64         `gorm:"not null"`
	Status        string        `gorm:"size:16;not null"`
	PaidAt        *time.Time
	CreatedAt     time.Time
}

// ShippingDetails is written by the attach-shipping job. Keyed by order so
// redelivered jobs overwrite rather than duplicate.
type ShippingDetails struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"uniqueIndex;not null"`
	Address   string `gorm:"size:256"`
	City      string `gorm:"size:64"`
	State     string `gorm:"size:64"`
	Country   string `gorm:"size:64"`
	Phone     string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockSettlement marks an order's inventory as settled. The unique order_id
// makes settlement a no-op on redelivery.
type StockSettlement struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"uniqueIndex;not null"`
	SettledAt time.Time
}

package repository

import (
	"testing"

	"marketplace-checkout/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Customer{},
		&model.Vendor{},
		&model.Product{},
		&model.Cart{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentDetails{},
		&model.ShippingDetails{},
		&model.StockSettlement{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createOrder(t *testing.T, db *gorm.DB, customerID uint, number int, status model.OrderStatus, pickupCode string) *model.Order {
	t.Helper()
	order := &model.Order{
		CustomerID:          customerID,
		CustomerOrderNumber: number,
		TotalAmount:         250000,
		PickupCode:          pickupCode,
		Status:              status,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

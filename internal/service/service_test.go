package service

import (
	"context"
	"sync"
	"testing"

	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/notify"

	"go.uber.org/zap"
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
	// One connection keeps every statement on the same in-memory database.
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

type fakeGateway struct {
	initReq     *gateway.InitializeRequest
	initRes     *gateway.Initiation
	initErr     error
	verifyRes   *gateway.VerifyResult
	verifyErr   error
	verifyCalls int
}

func (f *fakeGateway) Initialize(ctx context.Context, req *gateway.InitializeRequest) (*gateway.Initiation, error) {
	f.initReq = req
	if f.initErr != nil {
		return nil, f.initErr
	}
	if f.initRes != nil {
		return f.initRes, nil
	}
	return &gateway.Initiation{Reference: "test-ref", RedirectURL: "https://pay.example.com/test-ref"}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyRes, nil
}

type enqueuedJob struct {
	job     string
	key     string
	payload any
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (f *fakeQueue) Enqueue(ctx context.Context, job, key string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, enqueuedJob{job: job, key: key, payload: payload})
	return nil
}

func (f *fakeQueue) byJob(job string) []enqueuedJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []enqueuedJob
	for _, j := range f.jobs {
		if j.job == job {
			out = append(out, j)
		}
	}
	return out
}

type fakeNotifier struct {
	confirmations []*notify.Confirmation
}

func (f *fakeNotifier) OrderConfirmed(ctx context.Context, c *notify.Confirmation) {
	f.confirmations = append(f.confirmations, c)
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) *model.Customer {
	t.Helper()
	customer := &model.Customer{Email: email, FirstName: "Test", LastName: "Buyer"}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func seedVendor(t *testing.T, db *gorm.DB) *model.Vendor {
	t.Helper()
	vendor := &model.Vendor{FirstName: "Ada", LastName: "Obi", OrderTime: "17:00"}
	if err := db.Create(vendor).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	return vendor
}

func seedProduct(t *testing.T, db *gorm.DB, vendorID uint, name string, price int64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{VendorID: vendorID, Name: name, Price: price, Stock: stock, Active: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, customerID, productID uint, qty int) {
	t.Helper()
	err := db.Create(&model.Cart{CustomerID: customerID, ProductID: productID, Quantity: qty}).Error
	if err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uint, number int, total int64, pickupCode string) *model.Order {
	t.Helper()
	order := &model.Order{
		CustomerID:          customerID,
		CustomerOrderNumber: number,
		TotalAmount:         total,
		PickupCode:          pickupCode,
		Status:              model.OrderStatusInitiated,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedOrderItem(t *testing.T, db *gorm.DB, orderID, productID, vendorID uint, qty int, unitPrice int64) {
	t.Helper()
	err := db.Create(&model.OrderItem{
		OrderID:   orderID,
		ProductID: productID,
		VendorID:  vendorID,
		Quantity:  qty,
		UnitPrice: unitPrice,
	}).Error
	if err != nil {
		t.Fatalf("seed order item: %v", err)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func testLogger() *zap.Logger { return zap.NewNop() }

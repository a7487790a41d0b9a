package service

import (
	"context"
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/metrics"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/queue"
	"marketplace-checkout/internal/repository"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const currency = "NGN"

type CheckoutService interface {
	AddToCart(ctx context.Context, customerID uint, req *dto.AddCartItemRequest) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, customerID uint, req *dto.UpdateCartItemRequest) (*model.Cart, error)
	RemoveCartItem(ctx context.Context, customerID, productID uint) error
	ClearCart(ctx context.Context, customerID uint) error
	CartSummary(ctx context.Context, customerID uint) (*dto.CartSummary, error)
	Checkout(ctx context.Context, customerID uint, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	ListOrders(ctx context.Context, customerID uint) ([]*dto.OrderHistory, error)
}

type checkoutServiceImpl struct {
	db        *gorm.DB
	carts     repository.CartRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	customers repository.CustomerRepository
	paystack  gateway.Gateway
	stripe    gateway.Gateway
	jobs      queue.Enqueuer
	logger    *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	carts repository.CartRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	customers repository.CustomerRepository,
	paystack gateway.Gateway,
	stripe gateway.Gateway,
	jobs queue.Enqueuer,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:        db,
		carts:     carts,
		products:  products,
		orders:    orders,
		payments:  payments,
		customers: customers,
		paystack:  paystack,
		stripe:    stripe,
		jobs:      jobs,
		logger:    logger,
	}
}

func (s *checkoutServiceImpl) AddToCart(ctx context.Context, customerID uint, req *dto.AddCartItemRequest) (*model.Cart, error) {
	if req.Quantity <= 0 {
		return nil, apperr.InvalidRequest(apperr.CodeBadRequest, "quantity must be positive")
	}

	product, err := s.products.Find(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.MissingResource("product %d not found", req.ProductID)
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	if !product.Active {
		return nil, apperr.MissingResource("product %d not found", req.ProductID)
	}

	if _, err := s.carts.Get(ctx, customerID, req.ProductID); err == nil {
		return nil, apperr.InvalidRequest(apperr.CodeBadRequest, "item already in cart")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check cart item: %w", err)
	}

	if req.Quantity > product.Stock {
		return nil, apperr.InvalidRequest(apperr.CodeInsufficientStock,
			"%s has %d in stock", product.Name, product.Stock)
	}

	item := &model.Cart{
		CustomerID: customerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	}
	if err := s.carts.Add(ctx, item); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

func (s *checkoutServiceImpl) UpdateCartItem(ctx context.Context, customerID uint, req *dto.UpdateCartItemRequest) (*model.Cart, error) {
	if req.Quantity <= 0 {
		return nil, apperr.InvalidRequest(apperr.CodeBadRequest, "quantity must be positive")
	}

	if _, err := s.carts.Get(ctx, customerID, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.MissingResource("item not in cart")
		}
		return nil, fmt.Errorf("check cart item: %w", err)
	}

	product, err := s.products.Find(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if req.Quantity > product.Stock {
		return nil, apperr.InvalidRequest(apperr.CodeInsufficientStock,
			"%s has %d in stock", product.Name, product.Stock)
	}

	if err := s.carts.UpdateQuantity(ctx, customerID, req.ProductID, req.Quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return s.carts.Get(ctx, customerID, req.ProductID)
}

func (s *checkoutServiceImpl) RemoveCartItem(ctx context.Context, customerID, productID uint) error {
	if _, err := s.carts.Get(ctx, customerID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.MissingResource("item not in cart")
		}
		return fmt.Errorf("check cart item: %w", err)
	}
	return s.carts.Remove(ctx, customerID, productID)
}

func (s *checkoutServiceImpl) ClearCart(ctx context.Context, customerID uint) error {
	return s.carts.Clear(ctx, customerID)
}

func (s *checkoutServiceImpl) CartSummary(ctx context.Context, customerID uint) (*dto.CartSummary, error) {
	lines, err := s.carts.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	summary := &dto.CartSummary{Items: []dto.CartItem{}}
	if len(lines) == 0 {
		return summary, nil
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find cart products: %w", err)
	}
	byID := make(map[uint]*model.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, apperr.MissingResource("product %d not found", line.ProductID)
		}
		lineTotal := product.Price * int64(line.Quantity)
		summary.Items = append(summary.Items, dto.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
		summary.TotalItems += line.Quantity
		summary.TotalAmount += lineTotal
	}
	return summary, nil
}

// Checkout turns the customer's cart into a durable order and, for gateway
// methods, a payable session. Stock is validated against live counts under
// row locks but not decremented; settlement happens after payment is
// confirmed.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, customerID uint, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	lines, err := s.carts.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperr.InvalidRequest(apperr.CodeEmptyCart, "cart is empty")
	}

	customer, err := s.customers.Find(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.MissingResource("customer %d not found", customerID)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	method := model.PaymentMethod(req.PaymentMethod)
	switch method {
	case model.PaymentMethodCard, model.PaymentMethodBankTransfer,
		model.PaymentMethodCheckoutSession, model.PaymentMethodManual:
	default:
		return nil, apperr.InvalidRequest(apperr.CodeBadRequest, "unsupported payment method %q", req.PaymentMethod)
	}

	order := &model.Order{
		CustomerID: customerID,
		PickupCode: generatePickupCode(),
		Status:     model.OrderStatusInitiated,
	}

	// Order and items are one atomic unit: a partial order must never be
	// observable. Stock re-validation happens here, under row locks, because
	// stock may have moved since the items were added to the cart.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		items := make([]*model.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := s.products.FindForUpdate(ctx, tx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.MissingResource("product %d not found", line.ProductID)
				}
				return fmt.Errorf("lock product %d: %w", line.ProductID, err)
			}
			reserved, err := s.orders.PendingReservedQuantity(ctx, tx, line.ProductID)
			if err != nil {
				return fmt.Errorf("count reservations for product %d: %w", line.ProductID, err)
			}
			if available := product.Stock - reserved; line.Quantity > available {
				return apperr.InvalidRequest(apperr.CodeInsufficientStock,
					"%s has %d in stock", product.Name, available)
			}

			total += product.Price * int64(line.Quantity)
			items = append(items, &model.OrderItem{
				ProductID: product.ID,
				VendorID:  product.VendorID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
		}

		count, err := s.orders.CountByCustomer(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("count customer orders: %w", err)
		}
		order.CustomerOrderNumber = int(count) + 1
		order.TotalAmount = total

		if err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orders.CreateItems(ctx, tx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Shipping info is not needed for payment; attach it asynchronously.
	s.enqueue(ctx, queue.JobAttachShipping, order.ID, queue.AttachShippingPayload{
		OrderID:  order.ID,
		Shipping: req.Shipping,
	})

	switch method {
	case model.PaymentMethodCard, model.PaymentMethodBankTransfer:
		return s.initiateGatewayPayment(ctx, s.paystack, order, customer, method, []string{string(method)})
	case model.PaymentMethodCheckoutSession:
		return s.initiateGatewayPayment(ctx, s.stripe, order, customer, method, nil)
	case model.PaymentMethodManual:
		return s.completeManualPayment(ctx, order, method)
	}
	return nil, apperr.InvalidRequest(apperr.CodeBadRequest, "unsupported payment method %q", req.PaymentMethod)
}

func (s *checkoutServiceImpl) initiateGatewayPayment(
	ctx context.Context,
	gw gateway.Gateway,
	order *model.Order,
	customer *model.Customer,
	method model.PaymentMethod,
	channels []string,
) (*dto.CheckoutResponse, error) {
	initiation, err := gw.Initialize(ctx, &gateway.InitializeRequest{
		Amount:   order.TotalAmount,
		Currency: currency,
		Email:    customer.Email,
		Metadata: gateway.Metadata{
			OrderID:    order.ID,
			CustomerID: customer.ID,
			PickupCode: order.PickupCode,
		},
		Channels: channels,
	})
	if err != nil {
		// The payable session never existed, so the order reservation is
		// reclaimed; the cart is untouched and checkout can be retried.
		if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("remove order after gateway failure",
				zap.Uint("order_id", order.ID),
				zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.carts.Clear(ctx, order.CustomerID); err != nil {
		s.logger.Error("clear cart after checkout",
			zap.Uint("customer_id", order.CustomerID),
			zap.Error(err))
	}

	metrics.CheckoutsTotal.WithLabelValues(string(method)).Inc()
	s.logger.Info("checkout initiated",
		zap.Uint("order_id", order.ID),
		zap.String("reference", initiation.Reference))

	return &dto.CheckoutResponse{
		Payment: &dto.PaymentInitiation{
			Reference:   initiation.Reference,
			RedirectURL: initiation.RedirectURL,
			OrderID:     order.ID,
			PickupCode:  order.PickupCode,
		},
	}, nil
}

func (s *checkoutServiceImpl) completeManualPayment(ctx context.Context, order *model.Order, method model.PaymentMethod) (*dto.CheckoutResponse, error) {
	now := time.Now().UTC()
	err := s.payments.Create(ctx, &model.PaymentDetails{
		OrderID:       order.ID,
		PaymentRef:    "manual_" + uuid.NewString(),
		PaymentMethod: method,
		Amount:        order.TotalAmount,
		Status:        model.PaymentStatusSuccess,
		PaidAt:        &now,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment details: %w", err)
	}

	// No verification step for manual payments: settle right away.
	s.enqueue(ctx, queue.JobSettleStock, order.ID, queue.SettleStockPayload{OrderID: order.ID})

	if err := s.carts.Clear(ctx, order.CustomerID); err != nil {
		s.logger.Error("clear cart after checkout",
			zap.Uint("customer_id", order.CustomerID),
			zap.Error(err))
	}

	metrics.CheckoutsTotal.WithLabelValues(string(method)).Inc()

	return &dto.CheckoutResponse{Order: orderSummary(order)}, nil
}

func (s *checkoutServiceImpl) ListOrders(ctx context.Context, customerID uint) ([]*dto.OrderHistory, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	history := make([]*dto.OrderHistory, 0, len(orders))
	for _, order := range orders {
		items, err := s.orders.Items(ctx, s.db, order.ID)
		if err != nil {
			return nil, fmt.Errorf("order %d items: %w", order.ID, err)
		}

		entry := &dto.OrderHistory{OrderSummary: *orderSummary(order)}
		for _, item := range items {
			entry.Items = append(entry.Items, dto.OrderItemView{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.UnitPrice * int64(item.Quantity),
			})
		}
		history = append(history, entry)
	}
	return history, nil
}

// Enqueue failures for follow-up jobs are contained: they are logged, never
// surfaced to the checkout caller.
func (s *checkoutServiceImpl) enqueue(ctx context.Context, job string, orderID uint, payload any) {
	key := strconv.FormatUint(uint64(orderID), 10)
	if err := s.jobs.Enqueue(ctx, job, key, payload); err != nil {
		s.logger.Error("enqueue job",
			zap.String("job", job),
			zap.Uint("order_id", orderID),
			zap.Error(err))
	}
}

func orderSummary(order *model.Order) *dto.OrderSummary {
	return &dto.OrderSummary{
		ID:                  order.ID,
		CustomerOrderNumber: order.CustomerOrderNumber,
		TotalAmount:         order.TotalAmount,
		PickupCode:          order.PickupCode,
		Status:              string(order.Status),
		CreatedAt:           order.CreatedAt,
	}
}

func generatePickupCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

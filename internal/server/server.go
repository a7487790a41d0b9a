package server

import (
	"errors"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/handler"
	authmw "marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	echo           *echo.Echo
	cartHandler    *handler.CartHandler
	paymentHandler *handler.PaymentHandler
	jwtSecret      string
}

func NewServer(
	checkoutService service.CheckoutService,
	paymentService service.PaymentService,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{
		echo:           e,
		cartHandler:    handler.NewCartHandler(checkoutService),
		paymentHandler: handler.NewPaymentHandler(paymentService),
		jwtSecret:      cfg.Auth.JWTSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	authed := api.Group("", authmw.Auth(s.jwtSecret))

	// -------- cart --------
	authed.POST("/cart", s.cartHandler.AddItem)
	authed.PUT("/cart", s.cartHandler.UpdateItem)
	authed.DELETE("/cart/:productID", s.cartHandler.RemoveItem)
	authed.DELETE("/cart", s.cartHandler.Clear)
	authed.GET("/cart/summary", s.cartHandler.Summary)

	// -------- checkout / orders --------
	authed.POST("/checkout", s.cartHandler.Checkout)
	authed.GET("/orders", s.cartHandler.ListOrders)

	// -------- payment verification callbacks --------
	api.GET("/payments/verify/:reference", s.paymentHandler.VerifyTransaction)
	api.GET("/payments/sessions/verify/:sessionID", s.paymentHandler.VerifySession)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

// errorHandler maps the error taxonomy onto HTTP: user-correctable failures
// are 400, missing resources 404, gateway trouble 502.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status := http.StatusInternalServerError
			switch appErr.Kind {
			case apperr.KindInvalidRequest:
				status = http.StatusBadRequest
			case apperr.KindMissingResource:
				status = http.StatusNotFound
			case apperr.KindGateway:
				status = http.StatusBadGateway
			}
			_ = c.JSON(status, map[string]string{
				"code":  appErr.Code,
				"error": appErr.Msg,
			})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, map[string]any{"error": httpErr.Message})
			return
		}

		logger.Error("unhandled request error",
			zap.String("path", c.Path()),
			zap.Error(err))
		_ = c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

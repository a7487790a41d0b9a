package handler

import (
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) VerifyTransaction(c echo.Context) error {
	ctx := c.Request().Context()

	reference := c.Param("reference")
	if reference == "" {
		return apperr.InvalidRequest(apperr.CodeBadRequest, "missing payment reference")
	}

	confirmation, err := h.paymentService.VerifyTransaction(ctx, reference)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, confirmation)
}

func (h *PaymentHandler) VerifySession(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.Param("sessionID")
	if sessionID == "" {
		return apperr.InvalidRequest(apperr.CodeBadRequest, "missing session id")
	}

	confirmation, err := h.paymentService.VerifySession(ctx, sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, confirmation)
}

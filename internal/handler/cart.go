package handler

import (
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/service"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	checkoutService service.CheckoutService
}

func NewCartHandler(checkoutService service.CheckoutService) *CartHandler {
	return &CartHandler{checkoutService: checkoutService}
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidRequest(apperr.CodeBadRequest, "invalid request body")
	}

	item, err := h.checkoutService.AddToCart(ctx, customerID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req dto.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidRequest(apperr.CodeBadRequest, "invalid request body")
	}

	item, err := h.checkoutService.UpdateCartItem(ctx, customerID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	productID, err := strconv.ParseUint(c.Param("productID"), 10, 64)
	if err != nil {
		return apperr.InvalidRequest(apperr.CodeBadRequest, "invalid product id")
	}

	if err := h.checkoutService.RemoveCartItem(ctx, customerID, uint(productID)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	if err := h.checkoutService.ClearCart(ctx, customerID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	summary, err := h.checkoutService.CartSummary(ctx, customerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidRequest(apperr.CodeBadRequest, "invalid request body")
	}

	resp, err := h.checkoutService.Checkout(ctx, customerID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := middleware.CustomerID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	orders, err := h.checkoutService.ListOrders(ctx, customerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

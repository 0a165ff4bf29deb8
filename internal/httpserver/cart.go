package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jsalmeida/ecommerce-api/internal/logging"
	"github.com/jsalmeida/ecommerce-api/internal/middleware"
	"github.com/jsalmeida/ecommerce-api/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

// AddToCart links one unit of the product to the caller's cart. Any failure,
// including an unknown product id, comes back as the same generic 400.
func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to add item to the cart")
	}

	if err := h.Svc.Add(ctx, userID, uint(productID)); err != nil {
		if !errors.Is(err, service.ErrValidation) {
			l.Error("add_to_cart_error", "status", 400, "error", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to add item to the cart")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Item added to the cart successfully"})
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to remove item from the cart")
	}

	if err := h.Svc.RemoveOne(ctx, userID, uint(productID)); err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			l.Error("remove_from_cart_error", "status", 400, "error", err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to remove item from the cart")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from the cart successfully"})
}

func (h *CartHTTP) ViewCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.view")

	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
	}

	lines, err := h.Svc.View(ctx, userID)
	if err != nil {
		l.Error("view_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
	}

	if err := h.Svc.Checkout(ctx, userID); err != nil {
		l.Error("checkout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Checkout successful. Cart has been cleared."})
}

package main

import (
	"errors"
	"net/http"

	cartapp "github.com/LW95x/marketplace-backend/internal/cart/app"
	catalogapp "github.com/LW95x/marketplace-backend/internal/catalog/app"
	checkoutapp "github.com/LW95x/marketplace-backend/internal/checkout/app"
	invapp "github.com/LW95x/marketplace-backend/internal/inventory/app"
	orderapp "github.com/LW95x/marketplace-backend/internal/order/app"
)

// httpStatusFromErr translates core errors into the statuses the REST
// surface promises. Anything unrecognised is a 500.
func httpStatusFromErr(err error) (int, string, string) {
	var insufficient *invapp.InsufficientStockError

	switch {
	case errors.As(err, &insufficient):
		return http.StatusBadRequest, "INSUFFICIENT_STOCK", insufficient.Error()

	case errors.Is(err, checkoutapp.ErrEmptyCart):
		return http.StatusBadRequest, "EMPTY_CART", err.Error()

	case errors.Is(err, cartapp.ErrInvalidQuantity),
		errors.Is(err, invapp.ErrInvalidQuantity),
		errors.Is(err, checkoutapp.ErrInvalidAddress),
		errors.Is(err, orderapp.ErrInvalidAddress),
		errors.Is(err, orderapp.ErrInvalidStatus),
		errors.Is(err, orderapp.ErrEmptyPatch),
		errors.Is(err, catalogapp.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()

	case errors.Is(err, cartapp.ErrNotFound),
		errors.Is(err, invapp.ErrNotFound),
		errors.Is(err, orderapp.ErrNotFound),
		errors.Is(err, catalogapp.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()

	case errors.Is(err, cartapp.ErrConcurrentModification),
		errors.Is(err, orderapp.ErrConcurrentModification):
		return http.StatusConflict, "CONFLICT", err.Error()

	default:
		return http.StatusInternalServerError, "INTERNAL", err.Error()
	}
}

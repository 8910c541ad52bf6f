package service

import "errors"

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrItemNotInCart      = errors.New("product not found in cart")
	ErrCartLimitExceeded  = errors.New("cart item limit exceeded")
	ErrProductUnavailable = errors.New("product cannot be added right now")
	ErrCatalogUnavailable = errors.New("catalog service temporarily unavailable")
)

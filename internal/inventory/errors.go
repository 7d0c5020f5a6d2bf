package inventory

import "errors"

var (
	// ErrProductNotFound is returned when a referenced product id does not exist.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrInsufficientStock is returned when a depleting movement exceeds
	// current stock. The product is left unchanged.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

package inventory

import (
	"context"
	"time"
)

// Store is the inventory ledger: a product catalog plus an append-only
// movement log. Every mutation is a single durable transaction; the quantity
// update and the movement append of ApplyMovement happen as a unit.
type Store interface {
	// CreateProduct adds a catalog entry with a fresh id.
	CreateProduct(ctx context.Context, name string, qty int, expDate *string, minQty int) (Product, error)
	// GetProduct returns the product or ErrProductNotFound.
	GetProduct(ctx context.Context, id int64) (Product, error)
	// SearchProducts matches the query as a name substring, newest first.
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	// ListProducts returns up to limit products, newest first.
	ListProducts(ctx context.Context, limit int) ([]Product, error)
	// UpdateProduct applies a partial update of editable fields. Quantity is
	// never touched here; it only changes through ApplyMovement.
	UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) error
	// DeleteProduct removes the product row. Movements referencing it remain.
	DeleteProduct(ctx context.Context, id int64) error
	// ApplyMovement records a movement and adjusts stock. Depleting types
	// (OUT, WRITE_OFF) fail with ErrInsufficientStock when quantity exceeds
	// current stock; the check and the decrement are one atomic step.
	ApplyMovement(ctx context.Context, productID int64, mtype MovementType, qty int, comment string) (Movement, error)
	// ListJournal returns up to limit newest movements joined with current
	// product names; deleted products render as DELETED#<id>.
	ListJournal(ctx context.Context, limit int) ([]JournalEntry, error)
	// ListExpiring returns products expiring within the window relative to
	// ref, soonest first, including already-expired entries.
	ListExpiring(ctx context.Context, ref time.Time, withinDays int) ([]ExpiringProduct, error)
	// ListLowStock returns products at or below their reorder threshold
	// (threshold > 0 only), lowest quantity first.
	ListLowStock(ctx context.Context) ([]Product, error)
	// Stats returns catalog and journal totals.
	Stats(ctx context.Context) (Stats, error)
}

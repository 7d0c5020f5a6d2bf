package inventory

import (
	"sort"
	"time"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	// MovementIn increases stock (supply intake).
	MovementIn MovementType = "IN"
	// MovementOut decreases stock (sale).
	MovementOut MovementType = "OUT"
	// MovementWriteOff decreases stock with an operator-provided reason.
	MovementWriteOff MovementType = "WRITE_OFF"
)

const (
	// DateLayout is the expiry date format accepted from operators.
	DateLayout = "2006-01-02"
	// TimestampLayout is the stored movement timestamp format.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Product is a catalog entry. Qty is kept consistent with the movement log:
// depleting movements are rejected instead of driving Qty negative.
type Product struct {
	ID      int64   `db:"id"`
	Name    string  `db:"name"`
	Qty     int     `db:"qty"`
	ExpDate *string `db:"exp_date"`
	MinQty  int     `db:"min_qty"`
}

// Movement is one append-only ledger record.
type Movement struct {
	ID        int64        `db:"id"`
	ProductID int64        `db:"product_id"`
	Type      MovementType `db:"mtype"`
	Qty       int          `db:"qty"`
	CreatedAt string       `db:"created_at"`
	Comment   string       `db:"comment"`
}

// ProductUpdate carries a partial update; nil fields are left unchanged.
// ClearExpiry clears the expiry date and takes precedence over Expiry.
type ProductUpdate struct {
	Name        *string
	Expiry      *string
	ClearExpiry bool
	Threshold   *int
}

// JournalEntry is a movement joined with the product's current name. For
// movements whose product was deleted the name carries the DeletedNamePrefix
// placeholder followed by the product id.
type JournalEntry struct {
	MovementID  int64        `db:"id"`
	ProductName string       `db:"product_name"`
	Type        MovementType `db:"mtype"`
	Qty         int          `db:"qty"`
	CreatedAt   string       `db:"created_at"`
	Comment     string       `db:"comment"`
}

// DeletedNamePrefix marks journal rows whose product no longer exists.
const DeletedNamePrefix = "DELETED#"

// ExpiringProduct pairs a product with the number of days until its expiry
// relative to a reference date. Negative means already expired.
type ExpiringProduct struct {
	Product
	DaysLeft int
}

// Stats summarizes the catalog and the movement log.
type Stats struct {
	Products  int
	TotalQty  int64
	Movements int
}

// expiringWithin filters products with a parseable expiry date falling within
// the window and orders them by days remaining, soonest first. Products with
// malformed dates are skipped.
func expiringWithin(products []Product, ref time.Time, withinDays int) []ExpiringProduct {
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	var near []ExpiringProduct
	for _, p := range products {
		if p.ExpDate == nil {
			continue
		}
		d, err := time.Parse(DateLayout, *p.ExpDate)
		if err != nil {
			continue
		}
		days := int(d.Sub(refDay).Hours() / 24)
		if days <= withinDays {
			near = append(near, ExpiringProduct{Product: p, DaysLeft: days})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].DaysLeft < near[j].DaysLeft })
	return near
}

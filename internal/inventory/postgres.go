package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/abenov/qoymabot/core/logger"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore is the sqlx-backed Store implementation.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore builds a Store over an established connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

const productColumns = "id, name, qty, exp_date, min_qty"

// CreateProduct inserts a catalog entry and returns it with the assigned id.
func (s *PostgresStore) CreateProduct(ctx context.Context, name string, qty int, expDate *string, minQty int) (Product, error) {
	p := Product{Name: name, Qty: qty, ExpDate: expDate, MinQty: minQty}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO products(name, qty, exp_date, min_qty) VALUES($1, $2, $3, $4) RETURNING id`,
		name, qty, expDate, minQty,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	logger.Ledger.LogAttrs(ctx, slog.LevelInfo, "product created",
		slog.String("event", "ledger.product.create"),
		slog.Int64("product_id", p.ID),
		slog.Int("qty", qty),
	)
	return p, nil
}

// GetProduct fetches one product by id.
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// SearchProducts matches query as a substring of name, newest first.
func (s *PostgresStore) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	var list []Product
	err := s.db.SelectContext(ctx, &list,
		`SELECT `+productColumns+` FROM products WHERE name LIKE '%' || $1 || '%' ORDER BY id DESC`,
		query)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return list, nil
}

// ListProducts returns up to limit products, newest first.
func (s *PostgresStore) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	var list []Product
	err := s.db.SelectContext(ctx, &list,
		`SELECT `+productColumns+` FROM products ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

// UpdateProduct applies a partial update of name, expiry and threshold.
func (s *PostgresStore) UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) error {
	var (
		sets []string
		args []any
	)
	pos := 1
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", pos))
		args = append(args, *upd.Name)
		pos++
	}
	switch {
	case upd.ClearExpiry:
		sets = append(sets, "exp_date = NULL")
	case upd.Expiry != nil:
		sets = append(sets, fmt.Sprintf("exp_date = $%d", pos))
		args = append(args, *upd.Expiry)
		pos++
	}
	if upd.Threshold != nil {
		sets = append(sets, fmt.Sprintf("min_qty = $%d", pos))
		args = append(args, *upd.Threshold)
		pos++
	}
	if len(sets) == 0 {
		_, err := s.GetProduct(ctx, id)
		return err
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(sets, ", "), pos),
		args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes the product row; movement history stays intact.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	logger.Ledger.LogAttrs(ctx, slog.LevelInfo, "product deleted",
		slog.String("event", "ledger.product.delete"),
		slog.Int64("product_id", id),
	)
	return nil
}

// ApplyMovement adjusts stock and appends the movement in one transaction.
// Depleting types use a conditional decrement so two concurrent movements
// cannot both pass the sufficiency check against stale stock.
func (s *PostgresStore) ApplyMovement(ctx context.Context, productID int64, mtype MovementType, qty int, comment string) (Movement, error) {
	if qty <= 0 {
		return Movement{}, fmt.Errorf("apply movement: quantity must be positive, got %d", qty)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Movement{}, fmt.Errorf("apply movement: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var res sql.Result
	if mtype == MovementIn {
		res, err = tx.ExecContext(ctx,
			`UPDATE products SET qty = qty + $1 WHERE id = $2`, qty, productID)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE products SET qty = qty - $1 WHERE id = $2 AND qty >= $1`, qty, productID)
	}
	if err != nil {
		return Movement{}, fmt.Errorf("apply movement: adjust qty: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Movement{}, fmt.Errorf("apply movement: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID); err != nil {
			return Movement{}, fmt.Errorf("apply movement: existence check: %w", err)
		}
		if !exists {
			return Movement{}, ErrProductNotFound
		}
		return Movement{}, ErrInsufficientStock
	}

	m := Movement{
		ProductID: productID,
		Type:      mtype,
		Qty:       qty,
		CreatedAt: s.now().Format(TimestampLayout),
		Comment:   comment,
	}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO movements(product_id, mtype, qty, created_at, comment) VALUES($1, $2, $3, $4, $5) RETURNING id`,
		m.ProductID, m.Type, m.Qty, m.CreatedAt, m.Comment,
	).Scan(&m.ID)
	if err != nil {
		return Movement{}, fmt.Errorf("apply movement: append: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Movement{}, fmt.Errorf("apply movement: commit: %w", err)
	}

	logger.Ledger.LogAttrs(ctx, slog.LevelInfo, "movement applied",
		slog.String("event", "ledger.movement.apply"),
		slog.Int64("movement_id", m.ID),
		slog.Int64("product_id", productID),
		slog.String("mtype", string(mtype)),
		slog.Int("qty", qty),
	)
	return m, nil
}

// ListJournal joins movements with current product names, newest first.
func (s *PostgresStore) ListJournal(ctx context.Context, limit int) ([]JournalEntry, error) {
	var list []JournalEntry
	err := s.db.SelectContext(ctx, &list, `
		SELECT m.id, m.mtype, m.qty, m.created_at,
		       COALESCE(m.comment, '') AS comment,
		       COALESCE(p.name, '`+DeletedNamePrefix+`' || m.product_id::text) AS product_name
		FROM movements m
		LEFT JOIN products p ON p.id = m.product_id
		ORDER BY m.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return list, nil
}

// ListExpiring filters expiring products in Go since exp_date is stored as
// text and malformed values must be skipped, not fail the query.
func (s *PostgresStore) ListExpiring(ctx context.Context, ref time.Time, withinDays int) ([]ExpiringProduct, error) {
	var list []Product
	err := s.db.SelectContext(ctx, &list,
		`SELECT `+productColumns+` FROM products WHERE exp_date IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list expiring: %w", err)
	}
	return expiringWithin(list, ref, withinDays), nil
}

// ListLowStock returns products at or below their reorder threshold.
func (s *PostgresStore) ListLowStock(ctx context.Context) ([]Product, error) {
	var list []Product
	err := s.db.SelectContext(ctx, &list,
		`SELECT `+productColumns+` FROM products WHERE min_qty > 0 AND qty <= min_qty ORDER BY qty ASC`)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return list, nil
}

// Stats returns catalog and journal totals.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowxContext(ctx, `SELECT COUNT(*), COALESCE(SUM(qty), 0) FROM products`)
	if err := row.Scan(&st.Products, &st.TotalQty); err != nil {
		return Stats{}, fmt.Errorf("stats: products: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.Movements, `SELECT COUNT(*) FROM movements`); err != nil {
		return Stats{}, fmt.Errorf("stats: movements: %w", err)
	}
	return st, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/piwi3910/barcut/internal/model"
)

// GetOrder loads an order with its items.
func (s *Store) GetOrder(ctx context.Context, name string) (model.Order, error) {
	var (
		o        model.Order
		modified string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, customer, optimizer_output, modified FROM orders WHERE name = ?`, name,
	).Scan(&o.Name, &o.Customer, &o.OptimizerOutput, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, fmt.Errorf("%s: %w", name, ErrOrderNotFound)
	}
	if err != nil {
		return model.Order{}, err
	}
	o.Modified = parseTime(modified)

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_code, qty FROM order_items WHERE order_name = ? ORDER BY idx`, name)
	if err != nil {
		return model.Order{}, err
	}
	defer rows.Close()

	o.Items = []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ItemCode, &item.Qty); err != nil {
			return model.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// SaveOrder inserts or replaces an order and its items. Modified is set to now.
func (s *Store) SaveOrder(ctx context.Context, o *model.Order) error {
	o.Modified = time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (name, customer, optimizer_output, modified) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET customer = excluded.customer,
			   optimizer_output = excluded.optimizer_output, modified = excluded.modified`,
			o.Name, o.Customer, o.OptimizerOutput, formatTime(o.Modified))
		if err != nil {
			return err
		}
		return replaceItems(ctx, tx, o.Name, o.Items)
	})
}

// SaveOrderConfig stores only the optimizer output of an existing order.
func (s *Store) SaveOrderConfig(ctx context.Context, name string, cfg model.OptimizerConfig) error {
	raw, err := cfg.Encode()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET optimizer_output = ?, modified = ? WHERE name = ?`,
		raw, formatTime(time.Now()), name)
	if err != nil {
		return err
	}
	return expectRow(res, name, ErrOrderNotFound)
}

// ReplaceOrderItems swaps the item lines of an existing order.
func (s *Store) ReplaceOrderItems(ctx context.Context, name string, items []model.OrderItem) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE orders SET modified = ? WHERE name = ?`, formatTime(time.Now()), name)
		if err != nil {
			return err
		}
		if err := expectRow(res, name, ErrOrderNotFound); err != nil {
			return err
		}
		return replaceItems(ctx, tx, name, items)
	})
}

func replaceItems(ctx context.Context, tx *sql.Tx, name string, items []model.OrderItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_name = ?`, name); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_name, idx, item_code, qty) VALUES (?, ?, ?, ?)`,
			name, i, item.ItemCode, item.Qty); err != nil {
			return err
		}
	}
	return nil
}

func expectRow(res sql.Result, key string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, notFound)
	}
	return nil
}

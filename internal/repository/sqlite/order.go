package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

var _ repository.OrderRepository = (*OrderDB)(nil)

type OrderDB struct {
	conn *sql.DB
}

const orderColumns = `id, order_id, user_id, items, payment_method, total_price, total_coin_price,
	shipping_address, status, created_at, updated_at`

// PlaceOrder prices, stocks and stores an order atomically.
//
// Inside one transaction it:
//  1. reads each goodie's current price and coin price into the items
//  2. decrements stock, failing with a Conflict if any item is short
//  3. for coin payments, debits the buyer, failing with a Conflict if the
//     balance is too low
//  4. inserts the order row
//
// Any failure rolls everything back, so stock and coins never drift.
func (o *OrderDB) PlaceOrder(ctx context.Context, order *model.Order) error {
	tx, err := o.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning order transaction: %w", err)
	}
	defer tx.Rollback()

	order.TotalPrice = 0
	order.TotalCoinPrice = 0
	for i := range order.Items {
		item := &order.Items[i]

		var name string
		err := tx.QueryRowContext(ctx,
			`SELECT name, price, coin_price FROM goodies WHERE id = ?`, item.GoodieID,
		).Scan(&name, &item.Price, &item.CoinPrice)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("goodie", item.GoodieID)
			}
			return fmt.Errorf("sqlite: pricing goodie %s: %w", item.GoodieID, err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE goodies SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
			item.Quantity, time.Now().UTC(), item.GoodieID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("sqlite: reserving stock for %s: %w", item.GoodieID, err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n == 0 {
			return apperror.ConflictMessage(fmt.Sprintf("insufficient stock for %s", name))
		}

		order.TotalPrice += item.Price * int64(item.Quantity)
		order.TotalCoinPrice += item.CoinPrice * item.Quantity
	}

	if order.PaymentMethod == model.PaymentCoins {
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET coins = coins - ?, updated_at = ? WHERE id = ? AND coins >= ?`,
			order.TotalCoinPrice, time.Now().UTC(), order.UserID, order.TotalCoinPrice,
		)
		if err != nil {
			return fmt.Errorf("sqlite: debiting coins for %s: %w", order.UserID, err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n == 0 {
			return apperror.ConflictMessage("insufficient coins")
		}
	}

	order.ID = xid.New().String()
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = model.OrderPending
	}

	items, err := encodeJSON(order.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encoding order items: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderID, order.UserID, items, order.PaymentMethod, order.TotalPrice,
		order.TotalCoinPrice, order.ShippingAddress, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing order: %w", err)
	}
	return nil
}

func (o *OrderDB) GetByID(ctx context.Context, id string) (*model.Order, error) {
	order, err := scanOrder(o.conn.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? OR order_id = ?`, id, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("order", id)
		}
		return nil, fmt.Errorf("sqlite: getting order %s: %w", id, err)
	}
	return order, nil
}

func (o *OrderDB) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return o.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
}

func (o *OrderDB) ListAll(ctx context.Context, opts repository.ListOptions) ([]model.Order, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)
	return o.list(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
}

// UpdateStatus moves an order to status in one transaction. Delivered and
// cancelled orders are final and fail with a Conflict. Cancelling puts the
// items back in stock and refunds coin payments.
func (o *OrderDB) UpdateStatus(ctx context.Context, id, status string) error {
	tx, err := o.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning status transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("order", id)
		}
		return fmt.Errorf("sqlite: reading order %s: %w", id, err)
	}
	if model.OrderFinal(order.Status) {
		return apperror.ConflictMessage(fmt.Sprintf("order is already %s", order.Status))
	}

	now := time.Now().UTC()
	if status == model.OrderCancelled {
		for _, item := range order.Items {
			// A goodie deleted since checkout has nothing to restock.
			if _, err := tx.ExecContext(ctx,
				`UPDATE goodies SET stock = stock + ?, updated_at = ? WHERE id = ?`,
				item.Quantity, now, item.GoodieID,
			); err != nil {
				return fmt.Errorf("sqlite: restocking %s: %w", item.GoodieID, err)
			}
		}
		if order.PaymentMethod == model.PaymentCoins && order.TotalCoinPrice > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET coins = coins + ?, updated_at = ? WHERE id = ?`,
				order.TotalCoinPrice, now, order.UserID,
			); err != nil {
				return fmt.Errorf("sqlite: refunding coins to %s: %w", order.UserID, err)
			}
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating order %s status: %w", id, err)
	}
	if err := expectOneRow(result, "order", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing order status: %w", err)
	}
	return nil
}

func (o *OrderDB) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := o.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		order model.Order
		items string
	)
	if err := row.Scan(
		&order.ID, &order.OrderID, &order.UserID, &items, &order.PaymentMethod,
		&order.TotalPrice, &order.TotalCoinPrice, &order.ShippingAddress, &order.Status,
		&order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(items, &order.Items); err != nil {
		return nil, err
	}
	return &order, nil
}

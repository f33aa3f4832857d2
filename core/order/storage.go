package order

import (
	"context"
	"fmt"
	"time"

	"github.com/aapkidukaan/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, street, city, phone_no, pin_code, state, total_qty, total_amount, created_at)
	VALUES
		(:order_id, :user_id, :street, :city, :phone_no, :pin_code, :state, :total_qty, :total_amount, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_id, title, product_code, qty, price, position)
	VALUES
		(:order_id, :product_id, :title, :product_code, :qty, :price, :position)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item[%s]: %w", it.ProductID, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		return Order{}, database.WrapNotFound(fmt.Errorf("selecting order[%s]: %w", id, err))
	}

	const iq = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY position`
	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, iq, id); err != nil {
		return Order{}, fmt.Errorf("selecting items of order[%s]: %w", id, err)
	}
	ord.Items = items

	return ord, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, fmt.Errorf("selecting orders of user[%s]: %w", userID, err)
	}

	return orders, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Order, error) {
	const q = `SELECT * FROM orders ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q); err != nil {
		return nil, fmt.Errorf("selecting orders: %w", err)
	}

	return orders, nil
}

// FetchByDay lists the orders created on one calendar day (UTC).
func FetchByDay(ctx context.Context, db sqlx.ExtContext, day time.Time) ([]Order, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	const q = `
	SELECT * FROM orders
	WHERE created_at >= $1 AND created_at < $2
	ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, start, end); err != nil {
		return nil, fmt.Errorf("selecting orders of %s: %w", start.Format("2006-01-02"), err)
	}

	return orders, nil
}

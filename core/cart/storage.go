package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/aapkidukaan/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1`

	var c Cart
	if err := sqlx.GetContext(ctx, db, &c, q, userID); err != nil {
		return Cart{}, database.WrapNotFound(fmt.Errorf("selecting cart of user[%s]: %w", userID, err))
	}

	items, err := FetchItems(ctx, db, userID)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items

	return c, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY position`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart items of user[%s]: %w", userID, err)
	}

	return items, nil
}

// Save writes the cart under its user id, replacing any previous state,
// or deletes it when it has emptied out. Plain read-modify-write: two
// concurrent mutations of the same cart can race, matching the original
// system's (lack of) guarantees.
func Save(ctx context.Context, db *sqlx.DB, c Cart) error {
	if c.Empty() {
		return Delete(ctx, db, c.UserID)
	}

	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()
		c.UpdatedAt = now
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}

		const upsert = `
		INSERT INTO carts (user_id, total_qty, total_cost, created_at, updated_at)
		VALUES (:user_id, :total_qty, :total_cost, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			total_qty = EXCLUDED.total_qty,
			total_cost = EXCLUDED.total_cost,
			updated_at = EXCLUDED.updated_at`

		if _, err := sqlx.NamedExecContext(ctx, tx, upsert, c); err != nil {
			return fmt.Errorf("upserting cart of user[%s]: %w", c.UserID, err)
		}

		const del = `DELETE FROM cart_items WHERE user_id = $1`
		if _, err := tx.ExecContext(ctx, del, c.UserID); err != nil {
			return fmt.Errorf("clearing cart items of user[%s]: %w", c.UserID, err)
		}

		const ins = `
		INSERT INTO cart_items (user_id, product_id, title, product_code, qty, price, position)
		VALUES (:user_id, :product_id, :title, :product_code, :qty, :price, :position)`

		for i, it := range c.Items {
			it.UserID = c.UserID
			it.Position = i
			if _, err := sqlx.NamedExecContext(ctx, tx, ins, it); err != nil {
				return fmt.Errorf("inserting cart item[%s]: %w", it.ProductID, err)
			}
		}

		return nil
	})
}

func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM carts WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("deleting cart of user[%s]: %w", userID, err)
	}

	return nil
}

// RemoveProductEverywhere pulls a product out of every persisted cart,
// fixing the denormalized totals and dropping carts that empty out. Used
// when an admin deletes a product or marks it unavailable.
func RemoveProductEverywhere(ctx context.Context, db *sqlx.DB, productID string) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		const adjust = `
		UPDATE carts SET
			total_qty = carts.total_qty - i.qty,
			total_cost = carts.total_cost - i.price,
			updated_at = $2
		FROM cart_items i
		WHERE i.user_id = carts.user_id AND i.product_id = $1`

		if _, err := tx.ExecContext(ctx, adjust, productID, time.Now().UTC()); err != nil {
			return fmt.Errorf("adjusting cart totals for product[%s]: %w", productID, err)
		}

		const drop = `DELETE FROM cart_items WHERE product_id = $1`
		if _, err := tx.ExecContext(ctx, drop, productID); err != nil {
			return fmt.Errorf("removing cart items for product[%s]: %w", productID, err)
		}

		const purge = `DELETE FROM carts WHERE total_qty <= 0`
		if _, err := tx.ExecContext(ctx, purge); err != nil {
			return fmt.Errorf("purging emptied carts: %w", err)
		}

		return nil
	})
}

// lineInfo is the slice of a product record a cart mutation needs. The
// lookup lives here so cart handlers stay independent of the product
// package, which itself calls back into this one.
type lineInfo struct {
	ID          string `db:"product_id"`
	Title       string `db:"title"`
	ProductCode string `db:"product_code"`
	Price       int    `db:"price"`
}

func fetchLineInfo(ctx context.Context, db sqlx.ExtContext, productID string) (lineInfo, error) {
	const q = `SELECT product_id, title, product_code, price FROM products WHERE product_id = $1`

	var li lineInfo
	if err := sqlx.GetContext(ctx, db, &li, q, productID); err != nil {
		return lineInfo{}, database.WrapNotFound(fmt.Errorf("selecting product[%s]: %w", productID, err))
	}

	return li, nil
}

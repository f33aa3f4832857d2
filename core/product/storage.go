package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/aapkidukaan/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, prd Product) error {
	const q = `
	INSERT INTO products
		(product_id, product_code, title, description, image_id, image_url, price, manufacturer, available, category_id, created_at, updated_at)
	VALUES
		(:product_id, :product_code, :title, :description, :image_id, :image_url, :price, :manufacturer, :available, :category_id, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, prd); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, prd Product) error {
	const q = `
	UPDATE products SET
		product_code = :product_code,
		title = :title,
		description = :description,
		image_id = :image_id,
		image_url = :image_url,
		price = :price,
		manufacturer = :manufacturer,
		available = :available,
		category_id = :category_id,
		updated_at = :updated_at
	WHERE product_id = :product_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, prd); err != nil {
		return fmt.Errorf("updating product[%s]: %w", prd.ID, err)
	}

	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM products WHERE product_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting product[%s]: %w", id, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var prd Product
	if err := sqlx.GetContext(ctx, db, &prd, q, id); err != nil {
		return Product{}, database.WrapNotFound(fmt.Errorf("selecting product[%s]: %w", id, err))
	}

	return prd, nil
}

func FetchByCode(ctx context.Context, db sqlx.ExtContext, code string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_code = $1`

	var prd Product
	if err := sqlx.GetContext(ctx, db, &prd, q, code); err != nil {
		return Product{}, database.WrapNotFound(fmt.Errorf("selecting product by code: %w", err))
	}

	return prd, nil
}

// FetchPage lists products newest-first, one fixed-size page at a time.
func FetchPage(ctx context.Context, db sqlx.ExtContext, page int) ([]Product, int, error) {
	const q = `SELECT * FROM products ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	products := []Product{}
	if err := sqlx.SelectContext(ctx, db, &products, q, (page-1)*PerPage, PerPage); err != nil {
		return nil, 0, fmt.Errorf("selecting products: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, db, &count, `SELECT count(*) FROM products`); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	return products, count, nil
}

// escapeLike neutralizes LIKE wildcards so the term matches literally.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// Search lists products whose title contains the term, case-insensitive,
// newest-first. Wildcard characters in the term are taken literally.
func Search(ctx context.Context, db sqlx.ExtContext, term string, page int) ([]Product, int, error) {
	const q = `
	SELECT * FROM products
	WHERE title ILIKE '%' || $1 || '%'
	ORDER BY created_at DESC
	OFFSET $2 LIMIT $3`

	term = escapeLike(term)

	products := []Product{}
	if err := sqlx.SelectContext(ctx, db, &products, q, term, (page-1)*PerPage, PerPage); err != nil {
		return nil, 0, fmt.Errorf("searching products: %w", err)
	}

	var count int
	const cq = `SELECT count(*) FROM products WHERE title ILIKE '%' || $1 || '%'`
	if err := sqlx.GetContext(ctx, db, &count, cq, term); err != nil {
		return nil, 0, fmt.Errorf("counting search results: %w", err)
	}

	return products, count, nil
}

// FetchByCategory lists a category's products newest-first.
func FetchByCategory(ctx context.Context, db sqlx.ExtContext, categoryID string, page int) ([]Product, int, error) {
	const q = `
	SELECT * FROM products
	WHERE category_id = $1
	ORDER BY created_at DESC
	OFFSET $2 LIMIT $3`

	products := []Product{}
	if err := sqlx.SelectContext(ctx, db, &products, q, categoryID, (page-1)*PerPage, PerPage); err != nil {
		return nil, 0, fmt.Errorf("selecting products of category[%s]: %w", categoryID, err)
	}

	var count int
	const cq = `SELECT count(*) FROM products WHERE category_id = $1`
	if err := sqlx.GetContext(ctx, db, &count, cq, categoryID); err != nil {
		return nil, 0, fmt.Errorf("counting products of category[%s]: %w", categoryID, err)
	}

	return products, count, nil
}

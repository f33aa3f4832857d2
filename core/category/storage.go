package category

import (
	"context"
	"fmt"

	"github.com/aapkidukaan/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, cat Category) error {
	const q = `
	INSERT INTO categories
		(category_id, category_code, title, image_id, image_url, created_at, updated_at)
	VALUES
		(:category_id, :category_code, :title, :image_id, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, cat); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, cat Category) error {
	const q = `
	UPDATE categories SET
		category_code = :category_code,
		title = :title,
		image_id = :image_id,
		image_url = :image_url,
		updated_at = :updated_at
	WHERE category_id = :category_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, cat); err != nil {
		return fmt.Errorf("updating category[%s]: %w", cat.ID, err)
	}

	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM categories WHERE category_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting category[%s]: %w", id, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Category, error) {
	const q = `SELECT * FROM categories WHERE category_id = $1`

	var cat Category
	if err := sqlx.GetContext(ctx, db, &cat, q, id); err != nil {
		return Category{}, database.WrapNotFound(fmt.Errorf("selecting category[%s]: %w", id, err))
	}

	return cat, nil
}

func FetchByCode(ctx context.Context, db sqlx.ExtContext, code string) (Category, error) {
	const q = `SELECT * FROM categories WHERE category_code = $1`

	var cat Category
	if err := sqlx.GetContext(ctx, db, &cat, q, code); err != nil {
		return Category{}, database.WrapNotFound(fmt.Errorf("selecting category by code: %w", err))
	}

	return cat, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Category, error) {
	const q = `SELECT * FROM categories ORDER BY created_at DESC`

	categories := []Category{}
	if err := sqlx.SelectContext(ctx, db, &categories, q); err != nil {
		return nil, fmt.Errorf("selecting categories: %w", err)
	}

	return categories, nil
}

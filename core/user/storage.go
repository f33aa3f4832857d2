package user

import (
	"context"
	"fmt"
	"time"

	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users
		(user_id, username, email, password, phone, street, city, state, pin_code, role, otp_secret, created_at, updated_at)
	VALUES
		(:user_id, :username, :email, :password, :phone, :street, :city, :state, :pin_code, :role, :otp_secret, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		return User{}, database.WrapNotFound(fmt.Errorf("selecting user[%s]: %w", id, err))
	}

	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, email); err != nil {
		return User{}, database.WrapNotFound(fmt.Errorf("selecting user by email: %w", err))
	}

	return usr, nil
}

// List returns users ordered newest-first. Super admins are kept out of
// the admin listing.
func List(ctx context.Context, db sqlx.ExtContext) ([]User, error) {
	const q = `SELECT * FROM users WHERE role <> $1 ORDER BY created_at DESC`

	users := []User{}
	if err := sqlx.SelectContext(ctx, db, &users, q, claims.RoleSuperAdmin); err != nil {
		return nil, fmt.Errorf("selecting users: %w", err)
	}

	return users, nil
}

func UpdateRole(ctx context.Context, db sqlx.ExtContext, id string, role string, now time.Time) error {
	const q = `UPDATE users SET role = $2, updated_at = $3 WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, role, now); err != nil {
		return fmt.Errorf("updating role of user[%s]: %w", id, err)
	}

	return nil
}

func UpdatePassword(ctx context.Context, db sqlx.ExtContext, id string, hash string, now time.Time) error {
	const q = `UPDATE users SET password = $2, updated_at = $3 WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, hash, now); err != nil {
		return fmt.Errorf("updating password of user[%s]: %w", id, err)
	}

	return nil
}

func UpdateOTPSecret(ctx context.Context, db sqlx.ExtContext, id string, secret string, now time.Time) error {
	const q = `UPDATE users SET otp_secret = $2, updated_at = $3 WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, secret, now); err != nil {
		return fmt.Errorf("updating otp secret of user[%s]: %w", id, err)
	}

	return nil
}

package payment

import (
	"context"
	"fmt"

	"github.com/aapkidukaan/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, pay Payment) error {
	const q = `
	INSERT INTO payments
		(payment_id, order_id, provider, provider_id, receipt_id, amount, currency, status, created_at, updated_at)
	VALUES
		(:payment_id, :order_id, :provider, :provider_id, :receipt_id, :amount, :currency, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, pay); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	return nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Payment, error) {
	const q = `SELECT * FROM payments WHERE provider_id = $1`

	var pay Payment
	if err := sqlx.GetContext(ctx, db, &pay, q, providerID); err != nil {
		return Payment{}, database.WrapNotFound(fmt.Errorf("selecting payment bound to %q: %w", providerID, err))
	}

	return pay, nil
}

func FetchByOrder(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Payment, error) {
	const q = `SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC`

	payments := []Payment{}
	if err := sqlx.SelectContext(ctx, db, &payments, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting payments of order[%s]: %w", orderID, err)
	}

	return payments, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `UPDATE payments SET status = :status, updated_at = :updated_at WHERE payment_id = :payment_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of payment[%s]: %w", up.ID, err)
	}

	return nil
}

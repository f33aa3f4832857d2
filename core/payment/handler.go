package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/config"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/core/order"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/random"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// fetchOwn loads the order being paid and makes sure it belongs to the
// caller. Orders are immutable, so an order fetched here never changes
// between checkout and capture.
func fetchOwn(ctx context.Context, db *sqlx.DB, orderID string) (order.Order, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return order.Order{}, weberr.NotAuthorized(errors.New("user not authenticated"))
	}

	if err := validate.CheckID(orderID); err != nil {
		return order.Order{}, weberr.BadRequest(err)
	}

	ord, err := order.Fetch(ctx, db, orderID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return order.Order{}, weberr.NotFound(err)
		}
		return order.Order{}, err
	}

	if ord.UserID != clm.UserID {
		return order.Order{}, weberr.NotFound(fmt.Errorf("order[%s] does not belong to user[%s]", orderID, clm.UserID))
	}

	return ord, nil
}

// prepare records the pending payment bound to the provider's checkout.
func prepare(ctx context.Context, db *sqlx.DB, ord order.Order, provider string, providerID string) (Payment, error) {
	now := time.Now().UTC()
	pay := Payment{
		ID:         validate.GenerateID(),
		OrderID:    ord.ID,
		Provider:   provider,
		ProviderID: providerID,
		ReceiptID:  random.String(12),
		Amount:     ord.TotalAmount,
		Currency:   Currency,
		Status:     Pending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := Create(ctx, db, pay); err != nil {
		return Payment{}, fmt.Errorf("creating the payment bound to %q for order[%s]: %w", providerID, ord.ID, err)
	}

	return pay, nil
}

// fulfill flips the payment bound to the provider's checkout to success.
func fulfill(ctx context.Context, db *sqlx.DB, providerID string) error {
	pay, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return err
	}

	up := StatusUp{
		ID:        pay.ID,
		Status:    Success,
		UpdatedAt: time.Now().UTC(),
	}

	if err := UpdateStatus(ctx, db, up); err != nil {
		return fmt.Errorf("fulfilling payment[%s] bound to %q: %w", pay.ID, providerID, err)
	}

	return nil
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ord, err := fetchOwn(ctx, db, web.Param(r, "id"))
		if err != nil {
			return err
		}

		items := make([]paypal.Item, 0, len(ord.Items))
		for _, it := range ord.Items {
			items = append(items, paypal.Item{
				Quantity: strconv.Itoa(it.Qty),
				Name:     it.Title,
				SKU:      it.ProductCode,

				UnitAmount: &paypal.Money{
					Currency: Currency,
					Value:    strconv.Itoa(it.Price / max(it.Qty, 1)),
				},
			})
		}

		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: Currency,
				Value:    strconv.Itoa(ord.TotalAmount),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: Currency,
					Value:    strconv.Itoa(ord.TotalAmount),
				}},
			},
		}}

		ppOrd, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		if _, err := prepare(ctx, db, ord, "paypal", ppOrd.ID); err != nil {
			return err
		}

		return web.Respond(ctx, w, ppOrd, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, db, providerID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(db *sqlx.DB, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ord, err := fetchOwn(ctx, db, web.Param(r, "id"))
		if err != nil {
			return err
		}

		li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(ord.Items))
		for _, it := range ord.Items {
			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(int64(it.Qty)),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("inr"),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(int64(it.Price/max(it.Qty, 1)) * 100),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(it.Title),
					},
				},
			})
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL: stripe.String(cfg.SuccessURL),
			CancelURL:  stripe.String(cfg.CancelURL),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:  li,
		}

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		if _, err := prepare(ctx, db, ord, "stripe", s.ID); err != nil {
			return err
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

func HandleStripeCapture(db *sqlx.DB, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := fulfill(ctx, db, session.ID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

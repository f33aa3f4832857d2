package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/cart"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/core/user"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// HandleCheckout turns the resolved cart into an order. It needs an
// authenticated user and a non-empty cart; the shipping fields arrive as
// form input and are validated in a fixed order. Payment capture happens
// elsewhere.
func HandleCheckout(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		c, err := cart.Load(ctx, db, session)
		if err != nil {
			return err
		}

		if c.Empty() {
			err := errors.New("no items to checkout")
			return weberr.Unprocessable(err, err.Error())
		}

		if err := r.ParseForm(); err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing checkout form: %w", err))
		}

		on := OrderNew{
			Street:  web.Field(r, "street"),
			City:    web.Field(r, "city"),
			PinCode: web.Field(r, "pincode"),
			PhoneNo: web.Field(r, "phone_no"),
			State:   web.Field(r, "state"),
		}

		if err := validate.Check(on); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		ord := FromCart(validate.GenerateID(), c, on, time.Now().UTC())
		ord.UserID = clm.UserID

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Create(ctx, tx, ord); err != nil {
				return err
			}

			for _, it := range ord.Items {
				if err := CreateItem(ctx, tx, it); err != nil {
					return err
				}
			}

			return cart.Delete(ctx, tx, clm.UserID)
		})
		if err != nil {
			return fmt.Errorf("creating order for user[%s]: %w", clm.UserID, err)
		}

		cart.ClearSession(ctx, session)

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

// HandleListOwn returns the authenticated user's orders, newest first.
func HandleListOwn(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orders, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

// HandleList returns all orders, or one calendar day of them when a
// date=YYYY-MM-DD query parameter is given. Admin only.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		raw := r.URL.Query().Get("date")
		if raw == "" {
			orders, err := FetchAll(ctx, db)
			if err != nil {
				return err
			}
			return web.Respond(ctx, w, orders, http.StatusOK)
		}

		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing date %q: %w", raw, err))
		}

		orders, err := FetchByDay(ctx, db, day)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

// HandleReceipt renders an order into its downloadable PDF receipt.
// Admin only.
func HandleReceipt(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		usr, err := user.Fetch(ctx, db, ord.UserID)
		if err != nil {
			return err
		}

		pdf, err := Receipt(ord, usr.Username)
		if err != nil {
			return fmt.Errorf("rendering receipt of order[%s]: %w", id, err)
		}

		name := fmt.Sprintf("%s_order.pdf", usr.Username)
		return web.RespondFile(ctx, w, name, "application/pdf", pdf)
	}
}

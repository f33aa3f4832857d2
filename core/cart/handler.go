package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// Load resolves the authoritative cart for the current request and
// persists an adopted session cart right away.
func Load(ctx context.Context, db *sqlx.DB, session *scs.SessionManager) (Cart, error) {
	var userID string
	if clm, err := claims.Get(ctx); err == nil {
		userID = clm.UserID
	}

	var persisted *Cart
	if userID != "" {
		c, err := Fetch(ctx, db, userID)
		switch {
		case err == nil:
			persisted = &c
		case errors.Is(err, database.ErrNotFound):
		default:
			return Cart{}, err
		}
	}

	c, src := Resolve(userID, FromSession(ctx, session), persisted)
	if src == SourceSession && c.UserID != "" {
		if err := Save(ctx, db, c); err != nil {
			return Cart{}, err
		}
	}

	return c, nil
}

// save writes the mutated cart back to wherever it belongs: the store
// when a user owns it, and always the session, clearing both when the
// cart has emptied out.
func save(ctx context.Context, db *sqlx.DB, session *scs.SessionManager, c Cart) error {
	if c.UserID != "" {
		if err := Save(ctx, db, c); err != nil {
			return err
		}
	}

	if c.Empty() {
		ClearSession(ctx, session)
		return nil
	}

	ToSession(ctx, session, c)
	return nil
}

func HandleShow(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c, err := Load(ctx, db, session)
		if err != nil {
			return err
		}

		if !c.Empty() {
			ToSession(ctx, session, c)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

// HandleAddItem puts one unit of a product into the resolved cart.
// Anonymous shoppers are welcome; their cart stays in the session.
func HandleAddItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.BadRequest(err)
		}

		li, err := fetchLineInfo(ctx, db, productID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		c, err := Load(ctx, db, session)
		if err != nil {
			return err
		}

		c.Add(li.ID, li.Title, li.ProductCode, li.Price)

		if err := save(ctx, db, session, c); err != nil {
			return err
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

// HandleReduceItem takes one unit of a product out of the cart. The
// line disappears at quantity zero and the cart itself is deleted when
// its total quantity reaches zero.
func HandleReduceItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.BadRequest(err)
		}

		li, err := fetchLineInfo(ctx, db, productID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		c, err := Load(ctx, db, session)
		if err != nil {
			return err
		}

		if !c.Reduce(li.ID, li.Price) {
			return weberr.NotFound(errors.New("product not in cart"))
		}

		if err := save(ctx, db, session, c); err != nil {
			return err
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

// HandleRemoveItem drops a product's whole line from the cart.
func HandleRemoveItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.BadRequest(err)
		}

		c, err := Load(ctx, db, session)
		if err != nil {
			return err
		}

		if !c.RemoveAll(productID) {
			return weberr.NotFound(errors.New("product not in cart"))
		}

		if err := save(ctx, db, session, c); err != nil {
			return err
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

package auth

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
	"golang.org/x/crypto/bcrypt"
)

// HandleSignup registers a new account and signs it in right away. Any
// cart built up anonymously in the session becomes the new user's cart.
func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var us user.UserSignup
		if err := web.Decode(w, r, &us); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup: %w", err))
		}

		if err := validate.Check(us); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:        validate.GenerateID(),
			Username:  us.Username,
			Email:     us.Email,
			Password:  string(hash),
			Role:      claims.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, "email already registered")
			}
			return err
		}

		if err := establish(ctx, db, session, usr); err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

// HandleLogin signs a user in with email and password. A cart persisted
// under the account replaces whatever cart the anonymous session held;
// without one the session cart is adopted.
func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ul user.UserLogin
		if err := web.Decode(w, r, &ul); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding login: %w", err))
		}

		if err := validate.Check(ul); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		usr, err := user.FetchByEmail(ctx, db, ul.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("wrong email or password"))
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usr.Password), []byte(ul.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong email or password"))
		}

		if err := establish(ctx, db, session, usr); err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

// HandleLogout drops the whole session, cart included. A persisted cart
// stays in the database and comes back on the next login.
func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// establish rotates the session token, stores the identity in the
// session and settles which cart the user continues shopping with.
func establish(ctx context.Context, db *sqlx.DB, session *scs.SessionManager, usr user.User) error {
	if err := session.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	session.Put(ctx, userKey, usr.ID)
	session.Put(ctx, roleKey, usr.Role)

	sess := cart.FromSession(ctx, session)

	var persisted *cart.Cart
	pc, err := cart.Fetch(ctx, db, usr.ID)
	switch {
	case err == nil:
		persisted = &pc
	case errors.Is(err, database.ErrNotFound):
	default:
		return err
	}

	resolved, persist := cart.ResolveLogin(usr.ID, sess, persisted)
	if resolved == nil {
		cart.ClearSession(ctx, session)
		return nil
	}

	if persist {
		if err := cart.Save(ctx, db, *resolved); err != nil {
			return err
		}
	}

	cart.ToSession(ctx, session, *resolved)
	return nil
}

package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/jmoiron/sqlx"
)

// HandleShowCurrent returns the authenticated user's own record.
func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		usr, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

// HandleList returns all users except super admins, newest first.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		users, err := List(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, users, http.StatusOK)
	}
}

// HandleUpdateRole flips a user between USER and ADMIN. Super admins are
// off limits.
func HandleUpdateRole(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up RoleUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		usr, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if usr.Role == claims.RoleSuperAdmin {
			err := errors.New("cannot edit super admin user")
			return weberr.NewError(err, err.Error(), http.StatusForbidden)
		}

		if err := UpdateRole(ctx, db, id, up.Role, time.Now().UTC()); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

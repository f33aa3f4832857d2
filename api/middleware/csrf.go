package middleware

import (
	"context"
	"net/http"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/gorilla/csrf"
)

// CSRF guards state-changing admin calls with a gorilla/csrf token. The
// token for the next request travels in the X-CSRF-Token response header.
func CSRF(authKey []byte, secure bool) web.Middleware {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
	)

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			var err error
			inner := http.HandlerFunc(func(iw http.ResponseWriter, ir *http.Request) {
				iw.Header().Set("X-CSRF-Token", csrf.Token(ir))
				err = handler(ctx, iw, ir)
			})

			protect(inner).ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

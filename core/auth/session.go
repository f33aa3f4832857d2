package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/alexedwards/scs/v2"
)

// Session keys for the authenticated identity.
const (
	userKey = "user_id"
	roleKey = "user_role"
)

// bufferedResponseWriter delays the response until the session has been
// committed, so the session cookie can still make it into the headers.
type bufferedResponseWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	code        int
	wroteHeader bool
}

func (w *bufferedResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
}

func (w *bufferedResponseWriter) flush() error {
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(w.code)
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	return err
}

// LoadAndSave loads the scs session around every request and commits it
// back before the buffered response is released.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			var token string
			if cookie, err := r.Cookie(session.Cookie.Name); err == nil {
				token = cookie.Value
			}

			ctx, err := session.Load(ctx, token)
			if err != nil {
				return err
			}
			r = r.WithContext(ctx)

			bw := &bufferedResponseWriter{ResponseWriter: w}
			if err := handler(ctx, bw, r); err != nil {
				return err
			}

			switch session.Status(ctx) {
			case scs.Modified:
				token, expiry, err := session.Commit(ctx)
				if err != nil {
					return err
				}
				session.WriteSessionCookie(ctx, w, token, expiry)
			case scs.Destroyed:
				session.WriteSessionCookie(ctx, w, "", time.Time{})
			}

			return bw.flush()
		}
		return h
	}
	return m
}

// Identify populates the request claims from the session identity when
// one is present. Anonymous requests pass through without claims, so
// handlers serving both signed-in and anonymous shoppers can tell the
// two apart.
func Identify(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if userID := session.GetString(ctx, userKey); userID != "" {
				clm := claims.Claims{
					UserID: userID,
					Role:   session.GetString(ctx, roleKey),
				}
				ctx = claims.Set(ctx, clm)
				r = r.WithContext(ctx)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Authenticate populates the request claims from the session identity
// and rejects anonymous requests.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			userID := session.GetString(ctx, userKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, roleKey),
			}
			ctx = claims.Set(ctx, clm)

			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Admin requires an authenticated session with an admin role.
func Admin(session *scs.SessionManager) web.Middleware {
	authen := Authenticate(session)
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if !claims.IsAdmin(ctx) {
				err := errors.New("user is not an admin")
				return weberr.NewError(err, "not authorized to access resource", http.StatusForbidden)
			}

			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/alexedwards/scs/v2"
)

func loadedSession(t *testing.T) (*scs.SessionManager, context.Context) {
	t.Helper()

	session := scs.New()
	session.Lifetime = time.Hour

	ctx, err := session.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return session, ctx
}

func TestIdentifyAttachesClaims(t *testing.T) {
	session, ctx := loadedSession(t)
	session.Put(ctx, userKey, "u1")
	session.Put(ctx, roleKey, claims.RoleUser)

	var got claims.Claims
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			t.Fatalf("handler has no claims: %v", err)
		}
		got = clm
		return nil
	}

	r := httptest.NewRequest(http.MethodGet, "/cart", nil).WithContext(ctx)
	if err := Identify(session)(h)(ctx, httptest.NewRecorder(), r); err != nil {
		t.Fatal(err)
	}

	if got.UserID != "u1" || got.Role != claims.RoleUser {
		t.Fatalf("claims are %+v, want user u1 with role %s", got, claims.RoleUser)
	}
}

func TestIdentifyAnonymousHasNoClaims(t *testing.T) {
	session, ctx := loadedSession(t)

	called := false
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		called = true
		if _, err := claims.Get(ctx); err == nil {
			t.Fatal("anonymous request carries claims")
		}
		return nil
	}

	r := httptest.NewRequest(http.MethodGet, "/cart", nil).WithContext(ctx)
	if err := Identify(session)(h)(ctx, httptest.NewRecorder(), r); err != nil {
		t.Fatal(err)
	}

	if !called {
		t.Fatal("anonymous request was rejected")
	}
}

package claims

import (
	"context"
	"errors"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	// RoleSuperAdmin is assigned by hand; super admins never appear in
	// the admin user listing and cannot be edited through the API.
	RoleSuperAdmin = "SUPERADMIN"
)

type Claims struct {
	UserID string
	Role   string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Role == RoleAdmin || c.Role == RoleSuperAdmin
}

func IsUser(ctx context.Context, id string) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.UserID == id
}

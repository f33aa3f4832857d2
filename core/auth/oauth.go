package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/core/user"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/random"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// Session keys of the in-flight oauth handshake.
const (
	stateKey = "oauth_state"
	nonceKey = "oauth_nonce"
)

// ProviderConfig holds the static oauth settings of one identity
// provider, as they come from the configuration.
type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

// Provider is a discovered OpenID Connect provider ready to run the
// authorization code flow.
type Provider struct {
	name     string
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for every configured provider.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	providers := make(map[string]Provider, len(cfgs))

	for _, cfg := range cfgs {
		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering oauth provider %s: %w", cfg.Name, err)
		}

		providers[cfg.Name] = Provider{
			name: cfg.Name,
			config: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  cfg.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}

	return providers, nil
}

// HandleOauthLogin kicks off the authorization code flow by redirecting
// the browser to the provider's consent page.
func HandleOauthLogin(session *scs.SessionManager, providers map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, ok := providers[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", web.Param(r, "provider")))
		}

		state := random.String(24)
		nonce := random.String(24)
		session.Put(ctx, stateKey, state)
		session.Put(ctx, nonceKey, nonce)

		http.Redirect(w, r, p.config.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusTemporaryRedirect)
		return nil
	}
}

// HandleOauthCallback finishes the flow: it validates state and nonce,
// exchanges the code, verifies the ID token and signs the user in,
// creating the account on first contact. The cart policy is the same as
// for a password login.
func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, providers map[string]Provider, redirectURL string, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, ok := providers[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", web.Param(r, "provider")))
		}

		state := session.PopString(ctx, stateKey)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.NotAuthorized(errors.New("oauth state mismatch"))
		}

		tok, err := p.config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawID, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.NotAuthorized(errors.New("token response carries no id_token"))
		}

		idToken, err := p.verifier.Verify(ctx, rawID)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("verifying id token: %w", err))
		}

		if idToken.Nonce != session.PopString(ctx, nonceKey) {
			return weberr.NotAuthorized(errors.New("oauth nonce mismatch"))
		}

		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&profile); err != nil {
			return fmt.Errorf("extracting id token claims: %w", err)
		}
		if profile.Email == "" {
			return weberr.NotAuthorized(errors.New("id token carries no email"))
		}

		usr, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, database.ErrNotFound) {
			usr, err = createOauthUser(ctx, db, profile.Email, profile.Name)
			if err == nil {
				log.Infof("created user[%s] from %s login", usr.ID, p.name)
			}
		}
		if err != nil {
			return err
		}

		if err := establish(ctx, db, session, usr); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
		return nil
	}
}

// createOauthUser registers an account for a federated identity. The
// password is random and never shared, so the account can only be
// entered through the provider or a password reset.
func createOauthUser(ctx context.Context, db *sqlx.DB, email string, name string) (user.User, error) {
	secret, err := random.StringSecure(32)
	if err != nil {
		return user.User{}, fmt.Errorf("generating placeholder password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hashing placeholder password: %w", err)
	}

	if name == "" {
		name = email
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        validate.GenerateID(),
		Username:  name,
		Email:     email,
		Password:  string(hash),
		Role:      claims.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Create(ctx, db, usr); err != nil {
		return user.User{}, err
	}

	return usr, nil
}

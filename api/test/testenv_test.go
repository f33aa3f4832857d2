package test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aapkidukaan/storefront/api"
	"github.com/aapkidukaan/storefront/api/background"
	"github.com/aapkidukaan/storefront/config"
	"github.com/aapkidukaan/storefront/core/auth"
	"github.com/aapkidukaan/storefront/core/claims"
	"github.com/aapkidukaan/storefront/core/user"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/email"
	"github.com/aapkidukaan/storefront/images"
	"github.com/aapkidukaan/storefront/rate"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

// TestEnv is a running instance of the whole API backed by a throwaway
// postgres container and fake payment providers.
type TestEnv struct {
	URL    string
	Server *httptest.Server
	DB     *sqlx.DB

	UserEmail  string
	UserPass   string
	AdminEmail string
	AdminPass  string

	WebhookSecret string
	Paypal        *mockPaypal
	Stripe        *mockStripe
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=" + name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(res) })
	res.Expire(600)

	cfg := database.Config{
		User:       "postgres",
		Password:   "postgres",
		Host:       "localhost:" + res.GetPort("5432/tcp"),
		Name:       name,
		DisableTLS: true,
	}

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		var err error
		db, err = database.Open(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return database.StatusCheck(ctx, db)
	}); err != nil {
		return nil, fmt.Errorf("waiting for postgres: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	env := &TestEnv{
		DB:            db,
		UserEmail:     "shopper@example.in",
		UserPass:      "shopper-pass",
		AdminEmail:    "admin@example.in",
		AdminPass:     "admin-pass",
		WebhookSecret: "whsec_test",
		Paypal:        &mockPaypal{},
		Stripe:        &mockStripe{},
	}

	if err := seedUser(db, "shopper", env.UserEmail, env.UserPass, claims.RoleUser); err != nil {
		return nil, err
	}
	if err := seedUser(db, "admin", env.AdminEmail, env.AdminPass, claims.RoleAdmin); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ppSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("test-client", "test-secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}
	if _, err := pp.GetAccessToken(context.Background()); err != nil {
		return nil, fmt.Errorf("getting fake paypal token: %w", err)
	}

	stSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(stSrv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(stSrv.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	session := scs.New()
	session.Lifetime = time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:          logger,
		DB:           db,
		Session:      session,
		CSRFKey:      "0123456789abcdef0123456789abcdef",
		CSRFSecure:   false,
		Uploader:     &mockUploader{},
		ImageFolder:  "test",
		Mailer:       email.New("no-reply@example.in", "", "localhost", "2525", email.Links{}),
		TokenTimeout: 5 * time.Minute,
		TokenLimiter: rate.NewLimiter(10, 15, rate.Every(time.Millisecond)),
		Background:   background.New(logger),
		Paypal:       pp,
		Stripe:       strp,
		StripeCfg: config.Stripe{
			WebhookSecret: env.WebhookSecret,
			SuccessURL:    "http://localhost/success",
			CancelURL:     "http://localhost/cancel",
		},
		Providers:        map[string]auth.Provider{},
		LoginRedirectURL: "http://localhost/",
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	srv.Client().Jar = jar

	env.Server = srv
	env.URL = srv.URL

	return env, nil
}

func (e *TestEnv) Client() *http.Client {
	return e.Server.Client()
}

// CSRFToken fetches the token an admin must attach to state-changing
// calls. The caller must already be logged in as an admin.
func (e *TestEnv) CSRFToken(t *testing.T) string {
	t.Helper()

	r, err := http.NewRequest(http.MethodGet, e.URL+"/admin/orders", nil)
	if err != nil {
		t.Fatal(err)
	}

	w, err := e.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("cannot reach admin surface for a csrf token: status code %s", w.Status)
	}

	tok := w.Header.Get("X-CSRF-Token")
	if tok == "" {
		t.Fatal("no csrf token in the response")
	}
	return tok
}

func seedUser(db *sqlx.DB, username string, address string, password string, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        validate.GenerateID(),
		Username:  username,
		Email:     address,
		Password:  string(hash),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return user.Create(context.Background(), db, usr)
}

func Login(srv *httptest.Server, address string, password string) error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, address, password)

	w, err := srv.Client().Post(srv.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot login as %s: status code %s", address, w.Status)
	}
	return nil
}

func Logout(srv *httptest.Server) error {
	w, err := srv.Client().Post(srv.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("cannot logout: status code %s", w.Status)
	}
	return nil
}

// mockUploader stands in for the image host so admin forms with files
// work without network access.
type mockUploader struct {
	uploads   int
	destroyed []string
}

func (m *mockUploader) Upload(ctx context.Context, r io.Reader, folder string) (images.Image, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return images.Image{}, err
	}

	m.uploads++
	id := fmt.Sprintf("%s/img-%d", folder, m.uploads)
	return images.Image{ID: id, SecureURL: "https://img.test/" + id}, nil
}

func (m *mockUploader) Destroy(ctx context.Context, id string) error {
	m.destroyed = append(m.destroyed, id)
	return nil
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/background"
	"github.com/aapkidukaan/storefront/api/middleware"
	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/config"
	"github.com/aapkidukaan/storefront/core/auth"
	"github.com/aapkidukaan/storefront/core/cart"
	"github.com/aapkidukaan/storefront/core/category"
	"github.com/aapkidukaan/storefront/core/order"
	"github.com/aapkidukaan/storefront/core/payment"
	"github.com/aapkidukaan/storefront/core/product"
	"github.com/aapkidukaan/storefront/core/token"
	"github.com/aapkidukaan/storefront/core/user"
	"github.com/aapkidukaan/storefront/email"
	"github.com/aapkidukaan/storefront/images"
	"github.com/aapkidukaan/storefront/rate"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	CSRFKey          string
	CSRFSecure       bool
	Uploader         images.Uploader
	ImageFolder      string
	Mailer           *email.Mailer
	TokenTimeout     time.Duration
	TokenLimiter     *rate.Limiter
	Background       *background.Background
	Paypal           *paypal.Client
	Stripe           *stripecl.API
	StripeCfg        config.Stripe
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	identify := auth.Identify(cfg.Session)
	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	csrf := middleware.CSRF([]byte(cfg.CSRFKey), cfg.CSRFSecure)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL, cfg.Log))

	a.Handle(http.MethodPost, "/tokens", token.HandleToken(cfg.DB, cfg.Mailer, cfg.Background, cfg.TokenLimiter, cfg.TokenTimeout))
	a.Handle(http.MethodPost, "/tokens/recover", token.HandleRecovery(cfg.DB, cfg.TokenTimeout))

	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/products/search", product.HandleSearch(cfg.DB))
	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))

	a.Handle(http.MethodGet, "/categories", category.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/categories/{category_id}/products", product.HandleListByCategory(cfg.DB))

	// The cart works for anonymous shoppers too; identify attaches the
	// session identity when there is one so the persisted cart wins.
	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB, cfg.Session), identify)
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleAddItem(cfg.DB, cfg.Session), identify)
	a.Handle(http.MethodPut, "/cart/items/{product_id}/reduce", cart.HandleReduceItem(cfg.DB, cfg.Session), identify)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleRemoveItem(cfg.DB, cfg.Session), identify)

	a.Handle(http.MethodPost, "/orders", order.HandleCheckout(cfg.DB, cfg.Session), authen)
	a.Handle(http.MethodGet, "/orders/own", order.HandleListOwn(cfg.DB), authen)

	a.Handle(http.MethodPost, "/payments/paypal/{id}", payment.HandlePaypalCheckout(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/payments/paypal/{id}/capture", payment.HandlePaypalCapture(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/payments/stripe/{id}", payment.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/payments/stripe/capture", payment.HandleStripeCapture(cfg.DB, cfg.StripeCfg))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/admin/users", user.HandleList(cfg.DB), admin, csrf)
	a.Handle(http.MethodPut, "/admin/users/{id}/role", user.HandleUpdateRole(cfg.DB), admin, csrf)

	a.Handle(http.MethodPost, "/admin/products", product.HandleCreate(cfg.DB, cfg.Uploader, cfg.ImageFolder, cfg.Log), admin, csrf)
	a.Handle(http.MethodPut, "/admin/products/{id}", product.HandleUpdate(cfg.DB, cfg.Uploader, cfg.ImageFolder, cfg.Log), admin, csrf)
	a.Handle(http.MethodDelete, "/admin/products/{id}", product.HandleDelete(cfg.DB, cfg.Uploader, cfg.Log), admin, csrf)

	a.Handle(http.MethodPost, "/admin/categories", category.HandleCreate(cfg.DB, cfg.Uploader, cfg.ImageFolder, cfg.Log), admin, csrf)
	a.Handle(http.MethodPut, "/admin/categories/{id}", category.HandleUpdate(cfg.DB, cfg.Uploader, cfg.ImageFolder, cfg.Log), admin, csrf)
	a.Handle(http.MethodDelete, "/admin/categories/{id}", category.HandleDelete(cfg.DB, cfg.Uploader, cfg.Log), admin, csrf)

	a.Handle(http.MethodGet, "/admin/orders", order.HandleList(cfg.DB), admin, csrf)
	a.Handle(http.MethodGet, "/admin/orders/{id}/receipt", order.HandleReceipt(cfg.DB), admin, csrf)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aapkidukaan/storefront/api"
	"github.com/aapkidukaan/storefront/api/background"
	"github.com/aapkidukaan/storefront/config"
	"github.com/aapkidukaan/storefront/core/auth"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/email"
	"github.com/aapkidukaan/storefront/images"
	"github.com/aapkidukaan/storefront/rate"
	"github.com/aapkidukaan/storefront/secrets"
	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "DUKAAN"

	// Secrets come first: they fill the environment the config parse
	// reads from. Variables already set locally win.
	if id := os.Getenv(prefix + "_SECRETS_ID"); id != "" {
		region := os.Getenv(prefix + "_SECRETS_REGION")
		if region == "" {
			region = "ap-south-1"
		}
		if err := secrets.Overlay(context.Background(), id, region); err != nil {
			return fmt.Errorf("overlaying secrets: %w", err)
		}
	}

	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()
	if err := database.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("database is not ready: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Secure = cfg.Session.Secure

	uploader, err := images.NewCloudinary(cfg.Cloud.URL)
	if err != nil {
		return fmt.Errorf("failed to build the cloudinary client: %w", err)
	}

	links := email.Links{RecoveryURL: cfg.Oauth.LoginRedirectURL + "reset-password"}
	mail := email.New(cfg.Email.Address, cfg.Email.Password, cfg.Email.Host, cfg.Email.Port, links)

	bg := background.New(logger)

	limiter := rate.NewLimiter(cfg.RateLimit.ResetBurst, 15, rate.Every(cfg.RateLimit.ResetInterval))

	pp, err := paypal.NewClient(
		cfg.Paypal.ClientID,
		cfg.Paypal.Secret,
		cfg.Paypal.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to build the paypal client: %w", err)
	}

	if _, err = pp.GetAccessToken(context.TODO()); err != nil {
		return fmt.Errorf("failed to get the first paypal access token: %w", err)
	}

	strp := &stripecl.API{}
	strp.Init(cfg.Stripe.APISecret, nil)

	oauthCtx, oauthCancel := context.WithTimeout(context.Background(), cfg.Oauth.DiscoveryTimeout)
	defer oauthCancel()
	google := cfg.Oauth.Google
	oauthProvs, err := auth.MakeProviders(oauthCtx, []auth.ProviderConfig{
		{Name: "google", Client: google.Client, Secret: google.Secret, URL: google.URL, RedirectURL: google.RedirectURL},
	})
	if err != nil {
		return fmt.Errorf("failed to discover oauth providers: %w", err)
	}

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:       cfg.Cors.Origin,
		Log:              logger,
		DB:               db,
		Session:          sessionManager,
		CSRFKey:          cfg.Session.CSRFKey,
		CSRFSecure:       cfg.Session.Secure,
		Uploader:         uploader,
		ImageFolder:      cfg.Cloud.Folder,
		Mailer:           mail,
		TokenTimeout:     cfg.Email.ResetTimeout,
		TokenLimiter:     limiter,
		Background:       bg,
		Paypal:           pp,
		Stripe:           strp,
		StripeCfg:        cfg.Stripe,
		Providers:        oauthProvs,
		LoginRedirectURL: cfg.Oauth.LoginRedirectURL,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/background"
	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/user"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/email"
	"github.com/aapkidukaan/storefront/rate"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "AapKiDukaan"

// HandleToken mails a one-time reset code to the given address. The
// response is 204 whether or not the address belongs to an account, so
// the endpoint cannot be used to probe for registered emails. Requests
// are rate limited per address.
func HandleToken(db *sqlx.DB, mailer *email.Mailer, bg *background.Background, limiter *rate.Limiter, timeout time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var tn TokenNew
		if err := web.Decode(w, r, &tn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding token request: %w", err))
		}

		if err := validate.Check(tn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if !limiter.Check(tn.Email) {
			err := errors.New("too many reset requests")
			return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
		}

		usr, err := user.FetchByEmail(ctx, db, tn.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return err
		}

		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      issuer,
			AccountName: usr.Email,
		})
		if err != nil {
			return fmt.Errorf("generating otp secret: %w", err)
		}

		now := time.Now().UTC()
		if err := user.UpdateOTPSecret(ctx, db, usr.ID, key.Secret(), now); err != nil {
			return err
		}

		code, err := totp.GenerateCodeCustom(key.Secret(), now, validateOpts(timeout))
		if err != nil {
			return fmt.Errorf("generating reset code: %w", err)
		}

		bg.Run(func() error {
			return mailer.SendResetCode(usr.Email, code)
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleRecovery redeems a reset code and sets the new password. The
// stored secret is cleared on success, so each code works once.
func HandleRecovery(db *sqlx.DB, timeout time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var rec Recovery
		if err := web.Decode(w, r, &rec); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding recovery: %w", err))
		}

		if err := validate.Check(rec); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		usr, err := user.FetchByEmail(ctx, db, rec.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("wrong email or reset code"))
			}
			return err
		}

		if usr.OTPSecret == "" {
			return weberr.NotAuthorized(errors.New("wrong email or reset code"))
		}

		now := time.Now().UTC()
		valid, err := totp.ValidateCustom(rec.Code, usr.OTPSecret, now, validateOpts(timeout))
		if err != nil {
			return fmt.Errorf("validating reset code: %w", err)
		}
		if !valid {
			return weberr.NotAuthorized(errors.New("wrong email or reset code"))
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(rec.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		if err := user.UpdatePassword(ctx, db, usr.ID, string(hash), now); err != nil {
			return err
		}

		if err := user.UpdateOTPSecret(ctx, db, usr.ID, "", now); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func validateOpts(timeout time.Duration) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    period(timeout),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

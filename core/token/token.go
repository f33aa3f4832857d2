package token

import "time"

// TokenNew asks for a password-reset code to be mailed out.
type TokenNew struct {
	Email string `json:"email" validate:"required,email"`
}

// Recovery redeems a reset code for a new password.
type Recovery struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,gte=8"`
}

// period converts the configured code lifetime into TOTP seconds.
func period(timeout time.Duration) uint {
	s := uint(timeout.Seconds())
	if s == 0 {
		s = 300
	}
	return s
}

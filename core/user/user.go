package user

import "time"

type User struct {
	ID        string    `json:"id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Phone     string    `json:"phone" db:"phone"`
	Street    string    `json:"street" db:"street"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	PinCode   string    `json:"pinCode" db:"pin_code"`
	Role      string    `json:"role" db:"role"`
	OTPSecret string    `json:"-" db:"otp_secret"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type UserSignup struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,gte=8"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RoleUp changes a user's role. Promotion to SUPERADMIN is not a thing
// the API does.
type RoleUp struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

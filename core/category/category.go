package category

import "time"

type Category struct {
	ID           string    `json:"id" db:"category_id"`
	CategoryCode string    `json:"categoryCode" db:"category_code"`
	Title        string    `json:"title" db:"title"`
	ImageID      string    `json:"-" db:"image_id"`
	ImageURL     string    `json:"imageUrl" db:"image_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// CategoryNew is the admin create payload; the image file travels
// separately in the multipart body.
type CategoryNew struct {
	CategoryCode string `validate:"required"`
	Title        string `validate:"required"`
}

type CategoryUp struct {
	CategoryCode string `validate:"required"`
	Title        string `validate:"required"`
}

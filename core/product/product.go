package product

import "time"

type Product struct {
	ID           string    `json:"id" db:"product_id"`
	ProductCode  string    `json:"productCode" db:"product_code"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	ImageID      string    `json:"-" db:"image_id"`
	ImageURL     string    `json:"imageUrl" db:"image_url"`
	Price        int       `json:"price" db:"price"`
	Manufacturer string    `json:"manufacturer" db:"manufacturer"`
	Available    bool      `json:"available" db:"available"`
	CategoryID   *string   `json:"categoryId" db:"category_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductNew is the admin create payload, decoded off a multipart form;
// the image file travels separately.
type ProductNew struct {
	ProductCode  string `validate:"required"`
	Title        string `validate:"required"`
	Description  string `validate:"required"`
	CategoryID   string `validate:"required,uuid"`
	Manufacturer string `validate:"required"`
	Price        int    `validate:"gte=0"`
	Available    bool
}

type ProductUp struct {
	ProductCode  string `validate:"required"`
	Title        string `validate:"required"`
	Description  string `validate:"required"`
	CategoryID   string `validate:"required,uuid"`
	Manufacturer string `validate:"required"`
	Price        int    `validate:"gte=0"`
	Available    bool
}

// Page is a paginated catalog listing.
type Page struct {
	Products []Product `json:"products"`
	Current  int       `json:"current"`
	Pages    int       `json:"pages"`
}

// PerPage is the fixed catalog page size.
const PerPage = 8

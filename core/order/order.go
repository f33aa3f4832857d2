package order

import (
	"time"

	"github.com/aapkidukaan/storefront/core/cart"
)

// Order is the immutable snapshot taken from a cart at checkout. It is
// never edited afterwards, by anyone.
type Order struct {
	ID          string    `json:"id" db:"order_id"`
	UserID      string    `json:"userId" db:"user_id"`
	Street      string    `json:"street" db:"street"`
	City        string    `json:"city" db:"city"`
	PhoneNo     string    `json:"phoneNo" db:"phone_no"`
	PinCode     string    `json:"pinCode" db:"pin_code"`
	State       string    `json:"state" db:"state"`
	TotalQty    int       `json:"totalQty" db:"total_qty"`
	TotalAmount int       `json:"totalAmount" db:"total_amount"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	Items       []Item    `json:"items" db:"-"`
}

type Item struct {
	OrderID     string `json:"-" db:"order_id"`
	ProductID   string `json:"productId" db:"product_id"`
	Title       string `json:"title" db:"title"`
	ProductCode string `json:"productCode" db:"product_code"`
	Qty         int    `json:"qty" db:"qty"`
	Price       int    `json:"price" db:"price"`
	Position    int    `json:"-" db:"position"`
}

// OrderNew carries the shipping fields of the checkout form. Field
// order is the validation order, so the first error message is always
// deterministic.
type OrderNew struct {
	Street  string `validate:"required"`
	City    string `validate:"required"`
	PinCode string `validate:"required"`
	PhoneNo string `validate:"required"`
	State   string `validate:"required"`
}

// FromCart freezes the cart and the shipping details into an order.
func FromCart(id string, c cart.Cart, ship OrderNew, now time.Time) Order {
	ord := Order{
		ID:          id,
		UserID:      c.UserID,
		Street:      ship.Street,
		City:        ship.City,
		PhoneNo:     ship.PhoneNo,
		PinCode:     ship.PinCode,
		State:       ship.State,
		TotalQty:    c.TotalQty,
		TotalAmount: c.TotalCost,
		CreatedAt:   now,
	}

	for i, it := range c.Items {
		ord.Items = append(ord.Items, Item{
			OrderID:     id,
			ProductID:   it.ProductID,
			Title:       it.Title,
			ProductCode: it.ProductCode,
			Qty:         it.Qty,
			Price:       it.Price,
			Position:    i,
		})
	}

	return ord
}

package cart

import (
	"time"
)

// Cart is the in-progress selection of products for one shopper. It
// lives in the session while the shopper is anonymous and is persisted
// under their user id once they are signed in. TotalQty and TotalCost
// are denormalized and must always equal the sums over Items.
type Cart struct {
	UserID    string    `json:"-" db:"user_id"`
	TotalQty  int       `json:"totalQty" db:"total_qty"`
	TotalCost int       `json:"totalCost" db:"total_cost"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Items     []Item    `json:"items" db:"-"`
}

// Item is one cart line. Price is the line cost: Qty times the unit
// price at the time the product was added.
type Item struct {
	UserID      string `json:"-" db:"user_id"`
	ProductID   string `json:"productId" db:"product_id"`
	Title       string `json:"title" db:"title"`
	ProductCode string `json:"productCode" db:"product_code"`
	Qty         int    `json:"qty" db:"qty"`
	Price       int    `json:"price" db:"price"`
	Position    int    `json:"-" db:"position"`
}

func New(userID string) Cart {
	return Cart{UserID: userID}
}

// Empty reports whether the cart should no longer exist at all: a cart
// whose total quantity reaches zero is deleted, never stored.
func (c *Cart) Empty() bool {
	return c.TotalQty <= 0
}

func (c *Cart) find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts one unit of the product into the cart. An existing line for
// the same product is incremented, never duplicated.
func (c *Cart) Add(productID string, title string, productCode string, unitPrice int) {
	if i := c.find(productID); i > -1 {
		c.Items[i].Qty++
		c.Items[i].Price = c.Items[i].Qty * unitPrice
	} else {
		c.Items = append(c.Items, Item{
			UserID:      c.UserID,
			ProductID:   productID,
			Title:       title,
			ProductCode: productCode,
			Qty:         1,
			Price:       unitPrice,
			Position:    len(c.Items),
		})
	}

	c.TotalQty++
	c.TotalCost += unitPrice
}

// Reduce takes one unit of the product out of the cart, dropping the
// line once its quantity reaches zero. It reports whether the product
// was in the cart at all.
func (c *Cart) Reduce(productID string, unitPrice int) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}

	c.Items[i].Qty--
	c.Items[i].Price -= unitPrice
	c.TotalQty--
	c.TotalCost -= unitPrice

	if c.Items[i].Qty <= 0 {
		c.removeLine(i)
	}

	return true
}

// RemoveAll drops the whole line for the product regardless of its
// quantity. It reports whether the product was in the cart.
func (c *Cart) RemoveAll(productID string) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}

	c.TotalQty -= c.Items[i].Qty
	c.TotalCost -= c.Items[i].Price
	c.removeLine(i)

	return true
}

func (c *Cart) removeLine(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	for j := range c.Items {
		c.Items[j].Position = j
	}
}

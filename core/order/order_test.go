package order

import (
	"testing"
	"time"

	"github.com/aapkidukaan/storefront/core/cart"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/google/go-cmp/cmp"
)

func TestFromCart(t *testing.T) {
	c := cart.New("u1")
	c.Add("p1", "soap", "SOAP-01", 20)
	c.Add("p1", "soap", "SOAP-01", 20)
	c.Add("p2", "towel", "TWL-01", 150)

	ship := OrderNew{
		Street:  "14 MG Road",
		City:    "Ajmer",
		PinCode: "305001",
		PhoneNo: "9664002789",
		State:   "Rajasthan",
	}

	now := time.Date(2023, time.March, 12, 10, 30, 0, 0, time.UTC)
	ord := FromCart("ord1", c, ship, now)

	want := Order{
		ID:          "ord1",
		UserID:      "u1",
		Street:      "14 MG Road",
		City:        "Ajmer",
		PhoneNo:     "9664002789",
		PinCode:     "305001",
		State:       "Rajasthan",
		TotalQty:    3,
		TotalAmount: 190,
		CreatedAt:   now,
		Items: []Item{
			{OrderID: "ord1", ProductID: "p1", Title: "soap", ProductCode: "SOAP-01", Qty: 2, Price: 40, Position: 0},
			{OrderID: "ord1", ProductID: "p2", Title: "towel", ProductCode: "TWL-01", Qty: 1, Price: 150, Position: 1},
		},
	}

	if diff := cmp.Diff(want, ord); diff != "" {
		t.Fatalf("unexpected order: %s", diff)
	}
}

func TestFromCartIsSnapshot(t *testing.T) {
	c := cart.New("u1")
	c.Add("p1", "soap", "SOAP-01", 20)

	ord := FromCart("ord1", c, OrderNew{}, time.Now().UTC())

	c.Add("p1", "soap", "SOAP-01", 20)

	if ord.TotalQty != 1 || ord.TotalAmount != 20 {
		t.Fatalf("order changed after the cart did: qty=%d amount=%d", ord.TotalQty, ord.TotalAmount)
	}
	if ord.Items[0].Qty != 1 {
		t.Fatalf("order item changed after the cart did: %+v", ord.Items[0])
	}
}

func TestOrderNewValidationOrder(t *testing.T) {
	tests := []struct {
		name string
		on   OrderNew
		want string
	}{
		{
			name: "all missing reports street first",
			on:   OrderNew{},
			want: "Street is a required field",
		},
		{
			name: "street set reports city next",
			on:   OrderNew{Street: "14 MG Road"},
			want: "City is a required field",
		},
		{
			name: "pin code before phone",
			on:   OrderNew{Street: "14 MG Road", City: "Ajmer"},
			want: "PinCode is a required field",
		},
		{
			name: "state comes last",
			on:   OrderNew{Street: "14 MG Road", City: "Ajmer", PinCode: "305001", PhoneNo: "9664002789"},
			want: "State is a required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Check(tt.on)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if err.Error() != tt.want {
				t.Fatalf("got %q, want %q", err.Error(), tt.want)
			}
		})
	}

	full := OrderNew{Street: "14 MG Road", City: "Ajmer", PinCode: "305001", PhoneNo: "9664002789", State: "Rajasthan"}
	if err := validate.Check(full); err != nil {
		t.Fatalf("complete shipping form rejected: %v", err)
	}
}

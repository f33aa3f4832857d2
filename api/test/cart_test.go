package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/aapkidukaan/storefront/core/cart"
)

type cartTest struct {
	*TestEnv
}

func (rt *cartTest) do(t *testing.T, method string, path string) cart.Cart {
	t.Helper()

	r, err := http.NewRequest(method, rt.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}

	w, err := rt.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("%s %s: status code %s", method, path, w.Status)
	}

	var c cart.Cart
	if err := json.NewDecoder(w.Body).Decode(&c); err != nil {
		t.Fatalf("cannot unmarshal cart: %v", err)
	}
	return c
}

func (rt *cartTest) addItemOK(t *testing.T, productID string) cart.Cart {
	return rt.do(t, http.MethodPut, "/cart/items/"+productID)
}

func (rt *cartTest) reduceItemOK(t *testing.T, productID string) cart.Cart {
	return rt.do(t, http.MethodPut, "/cart/items/"+productID+"/reduce")
}

func (rt *cartTest) removeItemOK(t *testing.T, productID string) cart.Cart {
	return rt.do(t, http.MethodDelete, "/cart/items/"+productID)
}

func (rt *cartTest) showOK(t *testing.T) cart.Cart {
	return rt.do(t, http.MethodGet, "/cart")
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{env}
	rt := &cartTest{env}

	cat := ct.createCategoryOK(t, "BATH", "Bathroom")
	p1 := ct.createProductOK(t, cat.ID, "SOAP-01", "soap", 20)
	p2 := ct.createProductOK(t, cat.ID, "TWL-01", "towel", 150)

	// Anonymous shopping: the cart lives in the session only.
	rt.addItemOK(t, p1.ID)
	rt.addItemOK(t, p1.ID)
	c := rt.addItemOK(t, p2.ID)

	if c.TotalQty != 3 || c.TotalCost != 190 {
		t.Fatalf("cart totals are qty=%d cost=%d, want qty=3 cost=190", c.TotalQty, c.TotalCost)
	}
	if len(c.Items) != 2 {
		t.Fatalf("cart has %d lines, want 2", len(c.Items))
	}

	c = rt.reduceItemOK(t, p1.ID)
	if c.TotalQty != 2 || c.TotalCost != 170 {
		t.Fatalf("cart totals are qty=%d cost=%d, want qty=2 cost=170", c.TotalQty, c.TotalCost)
	}

	c = rt.removeItemOK(t, p2.ID)
	if c.TotalQty != 1 || c.TotalCost != 20 {
		t.Fatalf("cart totals are qty=%d cost=%d, want qty=1 cost=20", c.TotalQty, c.TotalCost)
	}

	// Signing up adopts the session cart.
	body := fmt.Sprintf(`{"username":"new-shopper","email":"new@example.in","password":%q}`, "eight-chars")
	w, err := env.Client().Post(env.URL+"/auth/signup", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	w.Body.Close()
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't sign up: status code %s", w.Status)
	}

	c = rt.showOK(t)
	if c.TotalQty != 1 || c.TotalCost != 20 {
		t.Fatalf("adopted cart totals are qty=%d cost=%d, want qty=1 cost=20", c.TotalQty, c.TotalCost)
	}

	// Logging out drops the session; the cart survives in the store and
	// comes back on the next login.
	if err := Logout(env.Server); err != nil {
		t.Fatal(err)
	}

	c = rt.showOK(t)
	if c.TotalQty != 0 {
		t.Fatalf("anonymous cart after logout has qty=%d, want 0", c.TotalQty)
	}

	if err := Login(env.Server, "new@example.in", "eight-chars"); err != nil {
		t.Fatal(err)
	}

	c = rt.showOK(t)
	if c.TotalQty != 1 || c.TotalCost != 20 {
		t.Fatalf("persisted cart totals are qty=%d cost=%d, want qty=1 cost=20", c.TotalQty, c.TotalCost)
	}
	if c.Items[0].ProductID != p1.ID {
		t.Fatalf("persisted cart holds %s, want %s", c.Items[0].ProductID, p1.ID)
	}

	// A persisted cart beats whatever the session holds at login time.
	if err := Logout(env.Server); err != nil {
		t.Fatal(err)
	}
	rt.addItemOK(t, p2.ID)
	if err := Login(env.Server, "new@example.in", "eight-chars"); err != nil {
		t.Fatal(err)
	}

	c = rt.showOK(t)
	if c.TotalQty != 1 || c.Items[0].ProductID != p1.ID {
		t.Fatalf("login merged the session cart: %+v", c)
	}

	// Adding while signed in must hit the store, not just the session:
	// the change has to survive a logout that drops the session cart.
	c = rt.addItemOK(t, p2.ID)
	if c.TotalQty != 2 || c.TotalCost != 170 {
		t.Fatalf("cart totals are qty=%d cost=%d, want qty=2 cost=170", c.TotalQty, c.TotalCost)
	}

	if err := Logout(env.Server); err != nil {
		t.Fatal(err)
	}
	if err := Login(env.Server, "new@example.in", "eight-chars"); err != nil {
		t.Fatal(err)
	}

	c = rt.showOK(t)
	if c.TotalQty != 2 || c.TotalCost != 170 || len(c.Items) != 2 {
		t.Fatalf("persisted cart lost the signed-in addition: %+v", c)
	}
}

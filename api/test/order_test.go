package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aapkidukaan/storefront/core/order"
)

type orderTest struct {
	*TestEnv
}

func (ot *orderTest) checkoutOK(t *testing.T) order.Order {
	t.Helper()

	form := url.Values{
		"street":   {"14 MG Road"},
		"city":     {"Ajmer"},
		"pincode":  {"305001"},
		"phone_no": {"9664002789"},
		"state":    {"Rajasthan"},
	}

	w, err := ot.Client().Post(ot.URL+"/orders", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't checkout: status code %s", w.Status)
	}

	var ord order.Order
	if err := json.NewDecoder(w.Body).Decode(&ord); err != nil {
		t.Fatalf("cannot unmarshal created order: %v", err)
	}
	return ord
}

func TestCheckout(t *testing.T) {
	env, err := NewTestEnv(t, "checkout_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{env}
	rt := &cartTest{env}
	ot := &orderTest{env}

	cat := ct.createCategoryOK(t, "BATH", "Bathroom")
	p1 := ct.createProductOK(t, cat.ID, "SOAP-01", "soap", 20)
	p2 := ct.createProductOK(t, cat.ID, "TWL-01", "towel", 150)

	if err := Login(env.Server, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	rt.addItemOK(t, p1.ID)
	rt.addItemOK(t, p1.ID)
	rt.addItemOK(t, p2.ID)

	ord := ot.checkoutOK(t)
	if ord.TotalQty != 3 || ord.TotalAmount != 190 {
		t.Fatalf("order totals are qty=%d amount=%d, want qty=3 amount=190", ord.TotalQty, ord.TotalAmount)
	}
	if len(ord.Items) != 2 {
		t.Fatalf("order has %d lines, want 2", len(ord.Items))
	}

	// Checkout consumes the cart.
	if c := rt.showOK(t); c.TotalQty != 0 {
		t.Fatalf("cart survived the checkout with qty=%d", c.TotalQty)
	}

	// An empty cart cannot be checked out again.
	form := url.Values{
		"street": {"14 MG Road"}, "city": {"Ajmer"}, "pincode": {"305001"},
		"phone_no": {"9664002789"}, "state": {"Rajasthan"},
	}
	w, err := env.Client().Post(env.URL+"/orders", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	w.Body.Close()
	if w.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty checkout passed: status code %s", w.Status)
	}

	// The shopper sees their own order history.
	w2, err := env.Client().Get(env.URL + "/orders/own")
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Body.Close()
	if w2.StatusCode != http.StatusOK {
		t.Fatalf("can't list own orders: status code %s", w2.Status)
	}

	var own []order.Order
	if err := json.NewDecoder(w2.Body).Decode(&own); err != nil {
		t.Fatalf("cannot unmarshal own orders: %v", err)
	}
	if len(own) != 1 || own[0].ID != ord.ID {
		t.Fatalf("own orders are %+v, want just %s", own, ord.ID)
	}

	if err := Logout(env.Server); err != nil {
		t.Fatal(err)
	}

	// The admin surface lists every order and renders receipts.
	if err := Login(env.Server, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(env.Server)

	w3, err := env.Client().Get(env.URL + "/admin/orders")
	if err != nil {
		t.Fatal(err)
	}
	defer w3.Body.Close()
	if w3.StatusCode != http.StatusOK {
		t.Fatalf("can't list orders: status code %s", w3.Status)
	}

	var all []order.Order
	if err := json.NewDecoder(w3.Body).Decode(&all); err != nil {
		t.Fatalf("cannot unmarshal orders: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("admin sees %d orders, want 1", len(all))
	}

	w4, err := env.Client().Get(env.URL + "/admin/orders/" + ord.ID + "/receipt")
	if err != nil {
		t.Fatal(err)
	}
	defer w4.Body.Close()
	if w4.StatusCode != http.StatusOK {
		t.Fatalf("can't download receipt: status code %s", w4.Status)
	}
	if ct := w4.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("receipt content type is %q", ct)
	}

	pdf, err := io.ReadAll(w4.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatal("receipt is not a PDF document")
	}
}

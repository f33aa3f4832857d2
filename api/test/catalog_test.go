package test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/aapkidukaan/storefront/core/category"
	"github.com/aapkidukaan/storefront/core/product"
)

type catalogTest struct {
	*TestEnv
}

func multipartForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	return body, mw.FormDataContentType()
}

func (ct *catalogTest) createCategoryOK(t *testing.T, code string, title string) category.Category {
	t.Helper()

	if err := Login(ct.Server, ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	tok := ct.CSRFToken(t)

	body, contentType := multipartForm(t, map[string]string{
		"categoryCode": code,
		"title":        title,
	})

	r, err := http.NewRequest(http.MethodPost, ct.URL+"/admin/categories", body)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("X-CSRF-Token", tok)

	w, err := ct.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create category: status code %s", w.Status)
	}

	var cat category.Category
	if err := json.NewDecoder(w.Body).Decode(&cat); err != nil {
		t.Fatalf("cannot unmarshal created category: %v", err)
	}
	return cat
}

func (ct *catalogTest) createProductOK(t *testing.T, categoryID string, code string, title string, price int) product.Product {
	t.Helper()

	if err := Login(ct.Server, ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	tok := ct.CSRFToken(t)

	body, contentType := multipartForm(t, map[string]string{
		"productCode":  code,
		"title":        title,
		"description":  "a " + title,
		"category":     categoryID,
		"manufacturer": "AapKiDukaan",
		"price":        strconv.Itoa(price),
		"available":    "on",
	})

	r, err := http.NewRequest(http.MethodPost, ct.URL+"/admin/products", body)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("X-CSRF-Token", tok)

	w, err := ct.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create product: status code %s", w.Status)
	}

	var prd product.Product
	if err := json.NewDecoder(w.Body).Decode(&prd); err != nil {
		t.Fatalf("cannot unmarshal created product: %v", err)
	}
	return prd
}

func TestCatalog(t *testing.T) {
	env, err := NewTestEnv(t, "catalog_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{env}

	cat := ct.createCategoryOK(t, "BATH", "Bathroom")
	p1 := ct.createProductOK(t, cat.ID, "SOAP-01", "soap", 20)
	_ = ct.createProductOK(t, cat.ID, "TWL-01", "towel", 150)
	_ = ct.createProductOK(t, cat.ID, "CTN-01", "100% cotton", 99)

	// The public catalog needs no login.
	w, err := env.Client().Get(env.URL + "/products")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't list products: status code %s", w.Status)
	}

	var page product.Page
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("cannot unmarshal product page: %v", err)
	}

	if len(page.Products) != 3 || page.Current != 1 || page.Pages != 1 {
		t.Fatalf("unexpected page: %d products, current %d of %d", len(page.Products), page.Current, page.Pages)
	}

	// Wildcard characters in the search term match literally.
	ws, err := env.Client().Get(env.URL + "/products/search?search=" + url.QueryEscape("100%"))
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Body.Close()

	if ws.StatusCode != http.StatusOK {
		t.Fatalf("can't search products: status code %s", ws.Status)
	}

	var found product.Page
	if err := json.NewDecoder(ws.Body).Decode(&found); err != nil {
		t.Fatalf("cannot unmarshal search page: %v", err)
	}

	if len(found.Products) != 1 || found.Products[0].Title != "100% cotton" {
		t.Fatalf("search matched %d products, want just the literal title", len(found.Products))
	}

	w2, err := env.Client().Get(env.URL + "/products/" + p1.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Body.Close()

	if w2.StatusCode != http.StatusOK {
		t.Fatalf("can't show product: status code %s", w2.Status)
	}

	// Creating without admin rights must be rejected.
	body, contentType := multipartForm(t, map[string]string{"productCode": "X", "title": "x"})
	r, err := http.NewRequest(http.MethodPost, env.URL+"/admin/products", body)
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", contentType)

	w3, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w3.Body.Close()

	if w3.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous admin call passed: status code %s", w3.Status)
	}
}

package images

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newMultipartRequest(t *testing.T, file []byte, fields map[string]string) (body *bytes.Buffer, contentType string) {
	t.Helper()

	body = &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if file != nil {
		fw, err := mw.CreateFormFile("image", "photo.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatal(err)
		}
	}

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

func TestParseUpdateReplace(t *testing.T) {
	content := []byte("fake image bytes")
	body, ct := newMultipartRequest(t, content, map[string]string{"title": "soap"})

	r := httptest.NewRequest("POST", "/admin/products", body)
	r.Header.Set("Content-Type", ct)

	up, err := ParseUpdate(r, "image", "remove_image")
	if err != nil {
		t.Fatalf("parsing update: %v", err)
	}
	defer up.Close()

	if up.Op != OpReplace {
		t.Fatalf("op is %v, want OpReplace", up.Op)
	}

	got, err := io.ReadAll(up.File)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("file content does not round-trip")
	}
}

func TestParseUpdateRemove(t *testing.T) {
	body, ct := newMultipartRequest(t, nil, map[string]string{"remove_image": "on"})

	r := httptest.NewRequest("POST", "/admin/products", body)
	r.Header.Set("Content-Type", ct)

	up, err := ParseUpdate(r, "image", "remove_image")
	if err != nil {
		t.Fatalf("parsing update: %v", err)
	}

	if up.Op != OpRemove {
		t.Fatalf("op is %v, want OpRemove", up.Op)
	}
	if up.File != nil {
		t.Fatal("a removal carries no file")
	}
}

func TestParseUpdateNoChange(t *testing.T) {
	body, ct := newMultipartRequest(t, nil, map[string]string{"title": "soap"})

	r := httptest.NewRequest("POST", "/admin/products", body)
	r.Header.Set("Content-Type", ct)

	up, err := ParseUpdate(r, "image", "remove_image")
	if err != nil {
		t.Fatalf("parsing update: %v", err)
	}

	if up.Op != OpNoChange {
		t.Fatalf("op is %v, want OpNoChange", up.Op)
	}
}

func TestParseUpdateFileWinsOverRemove(t *testing.T) {
	body, ct := newMultipartRequest(t, []byte("img"), map[string]string{"remove_image": "on"})

	r := httptest.NewRequest("POST", "/admin/products", body)
	r.Header.Set("Content-Type", ct)

	up, err := ParseUpdate(r, "image", "remove_image")
	if err != nil {
		t.Fatalf("parsing update: %v", err)
	}
	defer up.Close()

	if up.Op != OpReplace {
		t.Fatalf("op is %v, want OpReplace", up.Op)
	}
}

func TestParseUpdatePlainForm(t *testing.T) {
	form := url.Values{"title": {"soap"}}

	r := httptest.NewRequest("POST", "/admin/products", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	up, err := ParseUpdate(r, "image", "remove_image")
	if err != nil {
		t.Fatalf("a non-multipart form is not an error: %v", err)
	}

	if up.Op != OpNoChange {
		t.Fatalf("op is %v, want OpNoChange", up.Op)
	}
}

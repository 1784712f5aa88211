package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPLicenseVerifier_ValidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer api-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var body struct {
			LicenseKey string `json:"license_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request decode: %v", err)
		}
		if body.LicenseKey != "LICENSE-1" {
			t.Errorf("unexpected license key %q", body.LicenseKey)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"valid": true})
	}))
	defer srv.Close()

	v := NewHTTPLicenseVerifier(srv.URL, "api-key")
	ok, err := v.Validate(context.Background(), "LICENSE-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatal("expected valid license")
	}
}

func TestHTTPLicenseVerifier_RefusedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"valid": false})
	}))
	defer srv.Close()

	v := NewHTTPLicenseVerifier(srv.URL, "api-key")
	ok, err := v.Validate(context.Background(), "BAD")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Fatal("expected refused license")
	}
}

func TestHTTPLicenseVerifier_NonOKStatusIsRefusalNotError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))

		v := NewHTTPLicenseVerifier(srv.URL, "api-key")
		ok, err := v.Validate(context.Background(), "LICENSE-1")
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: expected refusal, got error %v", status, err)
		}
		if ok {
			t.Fatalf("status %d: expected refusal, got valid", status)
		}
	}
}

func TestHTTPLicenseVerifier_TransportErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // endpoint fora do ar

	v := NewHTTPLicenseVerifier(srv.URL, "api-key")
	ok, err := v.Validate(context.Background(), "LICENSE-1")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if ok {
		t.Fatal("transport failure must never report a valid license")
	}
	if !strings.Contains(err.Error(), "license verifier") {
		t.Fatalf("unexpected error: %v", err)
	}
}

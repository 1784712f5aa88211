package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPLicenseVerifier valida licenças num endpoint externo
// (estilo Lemon Squeezy: POST JSON com bearer token).
//
// Não guarda cache: a política de revalidação é do SessionStore.
type HTTPLicenseVerifier struct {
	url    string
	apiKey string
	client *http.Client
}

type LicenseVerifierOption func(*HTTPLicenseVerifier)

func WithLicenseHTTPClient(c *http.Client) LicenseVerifierOption {
	return func(v *HTTPLicenseVerifier) { v.client = c }
}

func NewHTTPLicenseVerifier(url, apiKey string, opts ...LicenseVerifierOption) *HTTPLicenseVerifier {
	v := &HTTPLicenseVerifier{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate retorna (false, nil) para licença recusada e erro apenas para
// falha de transporte. Status não-2xx conta como recusa, não como erro:
// é o upstream respondendo "não".
func (v *HTTPLicenseVerifier) Validate(ctx context.Context, licenseKey string) (bool, error) {
	body, err := json.Marshal(map[string]string{"license_key": licenseKey})
	if err != nil {
		return false, fmt.Errorf("license request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("license request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("license verifier: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, nil
	}

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("license response decode: %w", err)
	}
	return out.Valid, nil
}

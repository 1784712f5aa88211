package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPCaptchaVerifier verifica tokens anti-bot num endpoint externo
// (estilo Cloudflare Turnstile: POST form-encoded).
type HTTPCaptchaVerifier struct {
	url    string
	secret string
	client *http.Client
}

type CaptchaVerifierOption func(*HTTPCaptchaVerifier)

func WithCaptchaHTTPClient(c *http.Client) CaptchaVerifierOption {
	return func(v *HTTPCaptchaVerifier) { v.client = c }
}

func NewHTTPCaptchaVerifier(verifyURL, secret string, opts ...CaptchaVerifierOption) *HTTPCaptchaVerifier {
	v := &HTTPCaptchaVerifier{
		url:    verifyURL,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *HTTPCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verifier: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, nil
	}

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("captcha response decode: %w", err)
	}
	return out.Success, nil
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPBlobStore persiste artefatos num object store HTTP
// (PUT com bearer token; a resposta devolve a URL pública).
type HTTPBlobStore struct {
	baseURL string
	token   string
	client  *http.Client
}

type BlobStoreOption func(*HTTPBlobStore)

func WithBlobHTTPClient(c *http.Client) BlobStoreOption {
	return func(b *HTTPBlobStore) { b.client = c }
}

func NewHTTPBlobStore(baseURL, token string, opts ...BlobStoreOption) *HTTPBlobStore {
	b := &HTTPBlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HTTPBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.baseURL+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("blob request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob store: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("blob store: unexpected status %d for %q", resp.StatusCode, key)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("blob response decode: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("blob store: empty url for %q", key)
	}
	return out.URL, nil
}

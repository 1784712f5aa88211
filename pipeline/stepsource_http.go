package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"poster-gateway/poster"
)

// HTTPStepSource chama o serviço externo de geração de imagens de passo.
//
// Protocolo: POST JSON com o prompt e estilo; resposta traz uma lista de
// passos com PNG em base64. O serviço é tratado como produtor opaco.
type HTTPStepSource struct {
	url    string
	apiKey string
	client *http.Client
}

type StepSourceOption func(*HTTPStepSource)

func WithStepHTTPClient(c *http.Client) StepSourceOption {
	return func(s *HTTPStepSource) { s.client = c }
}

func NewHTTPStepSource(url, apiKey string, opts ...StepSourceOption) *HTTPStepSource {
	s := &HTTPStepSource{
		url:    url,
		apiKey: apiKey,
		// geração de imagem é lenta; timeout generoso, mas finito
		client: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPStepSource) StepImages(ctx context.Context, req StepRequest) ([]image.Image, error) {
	body, err := json.Marshal(map[string]string{
		"prompt":       req.Prompt,
		"style_preset": req.StylePreset,
		"custom_style": req.CustomStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("step request marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("step request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("step source: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("step source: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Steps []struct {
			Step      int    `json:"step"`
			PNGBase64 string `json:"png_base64"`
		} `json:"steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("step response decode: %w", err)
	}

	// Ordena pelo número do passo quando ele vier preenchido; a
	// quantidade é validada na composição, não aqui. Números repetidos
	// ou furos na sequência são resposta malformada do serviço: erro,
	// nunca uma lista com posições vazias.
	images := make([]image.Image, len(out.Steps))
	for i, st := range out.Steps {
		raw, err := base64.StdEncoding.DecodeString(st.PNGBase64)
		if err != nil {
			return nil, fmt.Errorf("step %d base64: %w", st.Step, err)
		}
		im, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("step %d png: %w", st.Step, err)
		}
		idx := i
		if st.Step >= 1 && st.Step <= len(out.Steps) && st.Step <= poster.PanelCount {
			idx = st.Step - 1
		}
		if images[idx] != nil {
			return nil, fmt.Errorf("step source: duplicate step number %d", st.Step)
		}
		images[idx] = im
	}
	for i, im := range images {
		if im == nil {
			return nil, fmt.Errorf("step source: missing step %d in response", i+1)
		}
	}
	return images, nil
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

const (
	mistralDefaultBaseURL = "https://api.mistral.ai"
	mistralDefaultModel   = "mistral-embed"

	// mistral-embed returns 1024-dimensional vectors
	mistralDimension = 1024
)

// MistralProvider implements EmbeddingProvider against the Mistral embeddings API.
// Calls are throttled client-side to the documented 10 requests/minute.
type MistralProvider struct {
	BaseURL string
	ApiKey  string
	Model   string
	Client  *http.Client

	limiter *rate.Limiter
}

func NewMistralProvider(baseURL, apiKey, model string) *MistralProvider {
	if baseURL == "" {
		baseURL = mistralDefaultBaseURL
	}
	if model == "" {
		model = mistralDefaultModel
	}
	return &MistralProvider{
		BaseURL: baseURL,
		ApiKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/10), 1),
	}
}

// WithRequestsPerMinute overrides the default throttle. Values <= 0 keep
// the current limiter.
func (p *MistralProvider) WithRequestsPerMinute(n int) *MistralProvider {
	if n > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
	return p
}

type mistralEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type mistralEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *MistralProvider) Dimension() int {
	return mistralDimension
}

func (p *MistralProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := mistralEmbeddingRequest{
		Model: p.Model,
		Input: texts,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, string(bodyBytes))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var apiResp mistralEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(apiResp.Data))
	}

	// The API documents input order, but sort by index to be safe
	sort.Slice(apiResp.Data, func(i, j int) bool {
		return apiResp.Data[i].Index < apiResp.Data[j].Index
	})

	vectors := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		values := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			values[j] = float32(v)
		}
		vectors[i] = normalizeVector(values)
	}

	return vectors, nil
}

package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrRateLimited marks embedding calls rejected by the provider's quota.
var ErrRateLimited = errors.New("embedding provider rate limit exceeded")

// APIError carries the upstream status for failed embedding calls.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embedding API error: status %d, body: %s", e.StatusCode, e.Body)
}

// EmbeddingProvider converts text into fixed-length vectors.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector size this provider produces.
	Dimension() int
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// Required for accurate cosine similarity in the vector store.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

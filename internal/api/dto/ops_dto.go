package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
)

// TokenRequest is the operator login payload.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries an issued operator token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func NewTokenResponse(t *domain.Token) TokenResponse {
	return TokenResponse{AccessToken: t.Value, TokenType: "Bearer", ExpiresAt: t.ExpiresAt}
}

// HealthResponse is served by both services on GET /health.
type HealthResponse struct {
	Status    string                          `json:"status"`
	Service   string                          `json:"service"`
	Connected bool                            `json:"connected"`
	Timestamp time.Time                       `json:"timestamp"`
	Metrics   *observability.PipelineSnapshot `json:"metrics,omitempty"`
}

// MetricsResponse is the operator counters view.
type MetricsResponse struct {
	Pipeline     observability.PipelineSnapshot `json:"pipeline"`
	HTTPRequests map[string]int64               `json:"httpRequests"`
	HTTPErrors   map[string]int64               `json:"httpErrors"`
}

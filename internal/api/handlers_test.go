package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/fetcher"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

type fakeCredits struct{}

func (fakeCredits) TotalCreditsUsed() int64             { return 42 }
func (fakeCredits) CreditsUsed(provider string) int64 { return 7 }

type fakeRegistry struct{}

func (fakeRegistry) Size() int { return 13 }

type fakeTracker struct{}

func (fakeTracker) LiveTokens() []models.TokenAddress {
	return []models.TokenAddress{"tok1", "tok2"}
}

func testServer() *Server {
	return NewServer(&config.APIConfig{Host: "127.0.0.1", Port: 0}, logger.NewLogger("error"), fakeCredits{}, fakeRegistry{}, fakeTracker{})
}

func TestHandleHealth(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleDiagnostics(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, float64(2), body["live_tokens"])
	assert.Equal(t, float64(13), body["registry_size"])

	credits, ok := body["credits"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(42), credits["total"])
	assert.Equal(t, float64(7), credits[fetcher.ProviderDex])
}

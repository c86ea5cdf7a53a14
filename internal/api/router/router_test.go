package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attento-ai/interview-platform/internal/leads"
	"github.com/attento-ai/interview-platform/pkg/logging"
)

func TestRouterHealth(t *testing.T) {
	h := New(&Config{Logger: logging.New("error")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterLeadsRoutes(t *testing.T) {
	h := New(&Config{
		Logger:       logging.New("error"),
		LeadsHandler: leads.NewHandler(leads.NewInMemoryRepository(), logging.New("error")),
	})

	body := `{"conversation_id":"conv-1","name":"Mario","email":"mario@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/leads/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	h := New(&Config{})
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

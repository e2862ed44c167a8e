package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/config"
	"launchpad/internal/handlers"
)

func TestServerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewHTTPServer(&config.AppConfig{Environment: "test"}, zerolog.Nop(), handlers.HandlerSet{})

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := serve("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve("/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"missing credential","errors":[]}`, rec.Body.String())

	rec = serve("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `launchpad_http_requests_total{method="GET",route="/api/v1/auth/me",status="401"} 1`)
	assert.Contains(t, body, `launchpad_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

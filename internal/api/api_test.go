package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"call-bridge/internal/config"
	"call-bridge/internal/observability"
	"call-bridge/internal/voicecall/handler"
	"call-bridge/internal/voicecall/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handler.New(handler.Config{Server: config.ServerConfig{PublicHost: "bridge.example.com"}}, handler.Dependencies{
		Registry: session.NewRegistry(),
		Logger:   observability.NewLogger(),
	})
	a := New(router.Group("/"), h)
	a.RegisterRoutes()

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/phone/sessions", http.StatusOK},
		{http.MethodGet, "/api/phone/sessions/CA1", http.StatusNotFound},
		{http.MethodPost, "/api/phone/incoming-call", http.StatusBadRequest},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tokyojung/internal/auth"
	"tokyojung/internal/config"
	"tokyojung/pkg/log"
)

func newCORSTestServer(origins []string) *Server {
	log.Init(log.Config{Output: io.Discard})
	cfg := &config.Config{Port: "3001", CORSOrigins: origins}
	return New(cfg, Deps{Auth: auth.NewService(testSecret, nil)})
}

func TestCORSDefaultDropsCredentials(t *testing.T) {
	s := newCORSTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
	// A wildcard origin combined with credentials is rejected by browsers;
	// the open default must not advertise credentials.
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSConfiguredOrigins(t *testing.T) {
	s := newCORSTestServer([]string{"https://pos.tokyojung.com"})

	t.Run("allowed origin is credentialed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://pos.tokyojung.com")
		w := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(w, req)

		assert.Equal(t, "https://pos.tokyojung.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin gets no grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

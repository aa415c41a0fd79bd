package run

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/wordrun/wordrun-platform/internal/auth/jwt"
	ws "github.com/wordrun/wordrun-platform/pkg/http/ws"
)

type stubTokenValidator struct {
	claims *jwt.Claims
	err    error
}

func (s *stubTokenValidator) ValidateToken(string) (*jwt.Claims, error) {
	return s.claims, s.err
}

func newTestHandler(tokens TokenValidator) *Handler {
	logger := zerolog.New(io.Discard)
	return NewHandler(nil, ws.NewHub(logger), tokens, logger)
}

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	h := newTestHandler(&stubTokenValidator{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/rooms", nil)
	h.HandleWebSocket(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWebSocketRejectsInvalidToken(t *testing.T) {
	h := newTestHandler(&stubTokenValidator{err: errors.New("bad signature")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/rooms?token=garbage", nil)
	h.HandleWebSocket(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

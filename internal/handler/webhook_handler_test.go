package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/service"
)

// stubSessionService only implements the operations the webhook
// handler reaches.
type stubSessionService struct {
	service.SessionService

	postedRoom   string
	postedSender string
	postedText   string
	postErr      error
}

func (s *stubSessionService) PostSystemMessage(_ context.Context, roomID, sender, content string) (*domain.MessageResponse, error) {
	if s.postErr != nil {
		return nil, s.postErr
	}
	s.postedRoom = roomID
	s.postedSender = sender
	s.postedText = content
	return &domain.MessageResponse{
		ID:            "msg-1",
		RoomID:        roomID,
		ParticipantID: sender,
		Content:       content,
		SentAt:        time.Now(),
	}, nil
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookRouter(sessions service.SessionService, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWebhookHandler(sessions, secret).RegisterRoutes(r)
	return r
}

func postSigned(r *gin.Engine, path, secret string, body []byte, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if sign {
		req.Header.Set(signatureHeader, signBody(secret, body))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	r := newWebhookRouter(&stubSessionService{}, "topsecret")
	body := []byte(`{"type":"room_closed","room":2,"timestamp":1756380000}`)

	w := postSigned(r, "/api/v1/webhooks/relay", "topsecret", body, true)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := newWebhookRouter(&stubSessionService{}, "topsecret")
	body := []byte(`{"type":"room_closed","room":2}`)

	w := postSigned(r, "/api/v1/webhooks/relay", "wrong-secret", body, true)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	r := newWebhookRouter(&stubSessionService{}, "topsecret")
	body := []byte(`{"type":"room_closed","room":2}`)

	w := postSigned(r, "/api/v1/webhooks/relay", "topsecret", body, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsWhenSecretUnset(t *testing.T) {
	r := newWebhookRouter(&stubSessionService{}, "")
	body := []byte(`{"type":"room_closed","room":2}`)

	w := postSigned(r, "/api/v1/webhooks/relay", "", body, true)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	r := newWebhookRouter(&stubSessionService{}, "topsecret")

	w := postSigned(r, "/api/v1/webhooks/relay", "topsecret", []byte(`not json`), true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModeratorMessageInjection(t *testing.T) {
	sessions := &stubSessionService{}
	r := newWebhookRouter(sessions, "topsecret")
	body := []byte(`{"room_id":"room-1","message":"please keep it civil"}`)

	w := postSigned(r, "/api/v1/webhooks/moderator-message", "topsecret", body, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "room-1", sessions.postedRoom)
	assert.Equal(t, "moderator", sessions.postedSender)
	assert.Equal(t, "please keep it civil", sessions.postedText)
}

func TestBotMessageInjection(t *testing.T) {
	sessions := &stubSessionService{}
	r := newWebhookRouter(sessions, "topsecret")
	body := []byte(`{"room_id":"room-1","message":"welcome to the room"}`)

	w := postSigned(r, "/api/v1/webhooks/bot-message", "topsecret", body, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "bot", sessions.postedSender)
}

func TestMessageInjectionRequiresSignature(t *testing.T) {
	sessions := &stubSessionService{}
	r := newWebhookRouter(sessions, "topsecret")
	body := []byte(`{"room_id":"room-1","message":"hi"}`)

	w := postSigned(r, "/api/v1/webhooks/bot-message", "topsecret", body, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sessions.postedRoom)
}

func TestMessageInjectionValidatesFields(t *testing.T) {
	r := newWebhookRouter(&stubSessionService{}, "topsecret")
	body := []byte(`{"room_id":"","message":""}`)

	w := postSigned(r, "/api/v1/webhooks/moderator-message", "topsecret", body, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageInjectionMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"room missing", service.ErrRoomNotFound, http.StatusNotFound},
		{"session inactive", service.ErrSessionNotActive, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newWebhookRouter(&stubSessionService{postErr: tc.err}, "topsecret")
			body := []byte(`{"room_id":"room-1","message":"hi"}`)

			w := postSigned(r, "/api/v1/webhooks/moderator-message", "topsecret", body, true)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}

package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/alecbaum/wagl-backend-sub002/internal/service"
	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
	"github.com/alecbaum/wagl-backend-sub002/pkg/response"
)

const signatureHeader = "X-Webhook-Signature"

const (
	senderModerator = "moderator"
	senderBot       = "bot"
)

// RelayEvent is an inbound notification from the relay service.
type RelayEvent struct {
	Type      string          `json:"type"`
	Room      int             `json:"room"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// SystemMessageRequest is the payload for moderator and bot message
// injection.
type SystemMessageRequest struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

// WebhookHandler receives relay callbacks and out-of-band message
// injections. Payloads are authenticated with an HMAC-SHA256 signature
// over the raw body.
type WebhookHandler struct {
	sessions service.SessionService
	secret   []byte
}

func NewWebhookHandler(sessions service.SessionService, secret string) *WebhookHandler {
	return &WebhookHandler{sessions: sessions, secret: []byte(secret)}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(r *gin.Engine) {
	webhooks := r.Group("/api/v1/webhooks")
	{
		webhooks.POST("/relay", h.HandleRelayEvent)
		webhooks.POST("/moderator-message", h.injectMessage(senderModerator))
		webhooks.POST("/bot-message", h.injectMessage(senderBot))
	}
}

// HandleRelayEvent verifies and records a relay callback.
func (h *WebhookHandler) HandleRelayEvent(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	body, ok := h.readSignedBody(c)
	if !ok {
		return
	}

	var event RelayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(c, "invalid event payload")
		return
	}

	l.Info().
		Str("event_type", event.Type).
		Int(log.FieldRelayRoom, event.Room).
		Msg("relay webhook received")

	response.Success(c, gin.H{"received": true})
}

// injectMessage posts a message into a room on behalf of a system
// sender.
func (h *WebhookHandler) injectMessage(sender string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		body, ok := h.readSignedBody(c)
		if !ok {
			return
		}

		var req SystemMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			response.BadRequest(c, "invalid message payload")
			return
		}
		if req.RoomID == "" || req.Message == "" {
			response.BadRequest(c, "room_id and message are required")
			return
		}

		msg, err := h.sessions.PostSystemMessage(ctx, req.RoomID, sender, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrRoomNotFound), errors.Is(err, service.ErrSessionNotFound):
				response.NotFound(c, "room not found")
			case errors.Is(err, service.ErrSessionNotActive):
				response.Conflict(c, "SESSION_NOT_ACTIVE", "session is not active")
			default:
				l := log.Ctx(ctx)
				l.Error().Err(err).Msg("failed to inject message")
				response.InternalError(c, "failed to inject message")
			}
			return
		}

		response.Created(c, msg)
	}
}

// readSignedBody reads the request body and checks the HMAC signature,
// writing the error response itself on failure.
func (h *WebhookHandler) readSignedBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64*1024))
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return nil, false
	}

	if !h.verify(body, c.GetHeader(signatureHeader)) {
		l := log.Ctx(c.Request.Context())
		l.Warn().
			Str("path", c.FullPath()).
			Msg("rejected webhook with bad signature")
		response.Unauthorized(c, "invalid signature")
		return nil, false
	}
	return body, true
}

func (h *WebhookHandler) verify(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

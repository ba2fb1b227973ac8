package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alecbaum/wagl-backend-sub002/internal/config"
	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/hub"
	"github.com/alecbaum/wagl-backend-sub002/internal/service"
	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
	"github.com/alecbaum/wagl-backend-sub002/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades participants onto the room hub.
type WSHandler struct {
	hub      *hub.Hub
	sessions service.SessionService
	wsCfg    config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, sessions service.SessionService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		sessions: sessions,
		wsCfg:    wsCfg,
	}
}

// RegisterRoutes registers the websocket route.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket binds a connection to a participant. The participant
// must already have joined via the REST join endpoint.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	participantID := c.Query("participant_id")
	if participantID == "" {
		response.BadRequest(c, "participant_id is required")
		return
	}

	participant, err := h.sessions.GetParticipant(ctx, participantID)
	if err != nil {
		response.NotFound(c, "participant not found")
		return
	}
	if !participant.IsActive {
		response.Conflict(c, "PARTICIPANT_INACTIVE", "participant is not active")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.NewString(), participant.ID, participant.RoomID, participant.SessionID, h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	h.hub.JoinRoom(client, participant.RoomID)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.WSErrCodeBadRequest, "invalid message format"))
		return
	}

	ctx := context.Background()
	l := log.L()

	switch base.Type {
	case domain.MsgTypeChatMessage:
		var msg domain.ChatMessageWS
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.WSErrCodeBadRequest, "invalid chat_message"))
			return
		}
		if _, err := h.sessions.SendMessage(ctx, client.ParticipantID, &domain.SendMessageRequest{Content: msg.Content}); err != nil {
			l.Warn().Err(err).Str(log.FieldParticipantID, client.ParticipantID).Msg("ws chat message failed")
			client.SendMessage(domain.NewErrorMessage(domain.WSErrCodeInternal, "failed to send message"))
		}

	case domain.MsgTypeLeaveRoom:
		if err := h.sessions.Leave(ctx, client.ParticipantID); err != nil {
			l.Warn().Err(err).Str(log.FieldParticipantID, client.ParticipantID).Msg("ws leave failed")
		}
		h.hub.LeaveRoom(client, client.RoomID)

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.WSErrCodeBadRequest, "unknown message type"))
	}
}

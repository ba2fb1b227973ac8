package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/middleware"
	"github.com/alecbaum/wagl-backend-sub002/internal/ratelimit"
	"github.com/alecbaum/wagl-backend-sub002/internal/service"
	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
	"github.com/alecbaum/wagl-backend-sub002/pkg/response"
)

// Handler handles HTTP requests for the session backend.
type Handler struct {
	sessions       service.SessionService
	invites        service.InviteService
	limiter        *ratelimit.Limiter
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(sessions service.SessionService, invites service.InviteService, limiter *ratelimit.Limiter, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		sessions:       sessions,
		invites:        invites,
		limiter:        limiter,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		{
			// Public routes
			sessions.GET("", h.ListSessions)
			sessions.GET("/:id", h.GetSession)
			sessions.GET("/:id/rooms", h.ListRooms)

			// Protected routes
			sessions.POST("", h.authMiddleware.RequireAuth(), h.limit("session_create"), h.CreateSession)
			sessions.GET("/my", h.authMiddleware.RequireAuth(), h.GetMySessions)
			sessions.POST("/:id/start", h.authMiddleware.RequireAuth(), h.StartSession)
			sessions.POST("/:id/end", h.authMiddleware.RequireAuth(), h.EndSession)
			sessions.POST("/:id/cancel", h.authMiddleware.RequireAuth(), h.CancelSession)
			sessions.POST("/:id/invites", h.authMiddleware.RequireAuth(), h.limit("invite_create"), h.CreateInvites)
			sessions.GET("/:id/invites", h.authMiddleware.RequireAuth(), h.ListInvites)

			// Guests join with an invite token, no bearer required.
			sessions.POST("/:id/join", h.authMiddleware.OptionalAuth(), h.limit("session_join"), h.Join)
		}

		invites := api.Group("/invites")
		{
			invites.GET("/:token", h.GetInvite)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("/:id/participants", h.RoomParticipants)
			rooms.GET("/:id/messages", h.RoomMessages)
		}

		participants := api.Group("/participants")
		{
			participants.POST("/:id/leave", h.Leave)
			participants.POST("/:id/messages", h.authMiddleware.OptionalAuth(), h.limit("message_send"), h.SendMessage)
		}

		api.GET("/ratelimit", h.authMiddleware.OptionalAuth(), h.RateLimitInfo)
	}
}

func (h *Handler) limit(endpoint string) gin.HandlerFunc {
	return ratelimit.Middleware(h.limiter, endpoint)
}

// CreateSession creates a scheduled session.
func (h *Handler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create session request")
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.sessions.CreateSession(ctx, userID, &req)
	if err != nil {
		l.Warn().Err(err).Msg("failed to create session")
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, session)
}

// GetSession retrieves a session with rooms and invite stats.
func (h *Handler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sessionID := c.Param("id")

	detail, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to get session")
		response.InternalError(c, "failed to get session")
		return
	}

	response.Success(c, detail)
}

// ListSessions lists sessions with pagination.
func (h *Handler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req struct {
		Page     int    `form:"page"`
		PageSize int    `form:"page_size"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.sessions.ListSessions(ctx, req.Page, req.PageSize, req.Status)
	if err != nil {
		l.Error().Err(err).Msg("failed to list sessions")
		response.InternalError(c, "failed to list sessions")
		return
	}

	response.Success(c, result)
}

// GetMySessions retrieves the current user's sessions.
func (h *Handler) GetMySessions(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	sessions, err := h.sessions.GetMySessions(ctx, userID)
	if err != nil {
		l.Error().Err(err).Msg("failed to get my sessions")
		response.InternalError(c, "failed to get sessions")
		return
	}

	response.Success(c, gin.H{"sessions": sessions})
}

// StartSession activates a scheduled session.
func (h *Handler) StartSession(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, userID, sessionID string) (*domain.SessionResponse, error) {
		return h.sessions.StartSession(ctx.Request.Context(), userID, sessionID)
	})
}

// EndSession terminates an active session. ?completed=true records a
// natural completion.
func (h *Handler) EndSession(c *gin.Context) {
	completed := c.Query("completed") == "true"
	h.transition(c, func(ctx *gin.Context, userID, sessionID string) (*domain.SessionResponse, error) {
		return h.sessions.EndSession(ctx.Request.Context(), userID, sessionID, completed)
	})
}

// CancelSession cancels a scheduled or active session.
func (h *Handler) CancelSession(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, userID, sessionID string) (*domain.SessionResponse, error) {
		return h.sessions.CancelSession(ctx.Request.Context(), userID, sessionID)
	})
}

func (h *Handler) transition(c *gin.Context, fn func(*gin.Context, string, string) (*domain.SessionResponse, error)) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	sessionID := c.Param("id")

	session, err := fn(c, userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.NotFound(c, "session not found")
		case errors.Is(err, service.ErrNotSessionOwner):
			response.Forbidden(c, "you are not the owner of this session")
		case errors.Is(err, service.ErrSessionNotStartable):
			response.Conflict(c, "SESSION_NOT_STARTABLE", "session cannot be started")
		case errors.Is(err, service.ErrSessionNotEndable):
			response.Conflict(c, "SESSION_NOT_ENDABLE", "session cannot be ended")
		case errors.Is(err, service.ErrSessionNotCancellable):
			response.Conflict(c, "SESSION_NOT_CANCELLABLE", "session cannot be cancelled")
		default:
			l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("session transition failed")
			response.InternalError(c, "session transition failed")
		}
		return
	}

	response.Success(c, session)
}

// Join places the caller into a room of an active session.
func (h *Handler) Join(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sessionID := c.Param("id")

	var req domain.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind join request")
		response.BadRequest(c, err.Error())
		return
	}

	var userID *string
	if id := middleware.GetUserID(c); id != "" {
		userID = &id
	}

	result, err := h.sessions.Join(ctx, sessionID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.NotFound(c, "session not found")
		case errors.Is(err, service.ErrSessionNotActive):
			response.Conflict(c, "SESSION_NOT_ACTIVE", "session is not active")
		case errors.Is(err, service.ErrSessionFull):
			response.Conflict(c, "SESSION_FULL", "session is at capacity")
		case errors.Is(err, service.ErrInviteRequired):
			response.BadRequest(c, "an invite token is required to join")
		case errors.Is(err, service.ErrInviteInvalid), errors.Is(err, service.ErrInviteWrongSession):
			response.BadRequest(c, "invite token is invalid")
		case errors.Is(err, service.ErrInviteConsumed):
			response.Conflict(c, "INVITE_CONSUMED", "invite token was already used")
		case errors.Is(err, service.ErrInviteExpired):
			response.Gone(c, "INVITE_EXPIRED", "invite token expired")
		default:
			l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to join session")
			response.InternalError(c, "failed to join session")
		}
		return
	}

	response.Created(c, result)
}

// Leave marks a participant as having left.
func (h *Handler) Leave(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	participantID := c.Param("id")

	if err := h.sessions.Leave(ctx, participantID); err != nil {
		switch {
		case errors.Is(err, service.ErrParticipantNotFound):
			response.NotFound(c, "participant not found")
		case errors.Is(err, service.ErrParticipantInactive):
			response.Conflict(c, "ALREADY_LEFT", "participant already left")
		default:
			l.Error().Err(err).Str(log.FieldParticipantID, participantID).Msg("failed to leave")
			response.InternalError(c, "failed to leave")
		}
		return
	}

	response.Success(c, gin.H{"message": "left session"})
}

// SendMessage persists a message and queues relay delivery.
func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	participantID := c.Param("id")

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind message request")
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.sessions.SendMessage(ctx, participantID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrParticipantNotFound):
			response.NotFound(c, "participant not found")
		case errors.Is(err, service.ErrParticipantInactive):
			response.Conflict(c, "PARTICIPANT_INACTIVE", "participant is not active")
		default:
			l.Error().Err(err).Str(log.FieldParticipantID, participantID).Msg("failed to send message")
			response.InternalError(c, "failed to send message")
		}
		return
	}

	response.Created(c, msg)
}

// ListRooms lists the rooms of a session.
func (h *Handler) ListRooms(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sessionID := c.Param("id")

	rooms, err := h.sessions.ListRooms(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to list rooms")
		response.InternalError(c, "failed to list rooms")
		return
	}

	response.Success(c, gin.H{"rooms": rooms})
}

// RoomParticipants lists active participants in a room.
func (h *Handler) RoomParticipants(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("id")

	participants, err := h.sessions.RoomParticipants(ctx, roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list participants")
		response.InternalError(c, "failed to list participants")
		return
	}

	response.Success(c, gin.H{"participants": participants})
}

// RoomMessages returns recent room history.
func (h *Handler) RoomMessages(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("id")

	var req struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	messages, err := h.sessions.RoomMessages(ctx, roomID, req.Limit)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list messages")
		response.InternalError(c, "failed to list messages")
		return
	}

	response.Success(c, gin.H{"messages": messages})
}

// CreateInvites creates a batch of invites for a session.
func (h *Handler) CreateInvites(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	sessionID := c.Param("id")

	var req domain.CreateInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create invites request")
		response.BadRequest(c, err.Error())
		return
	}

	tier := domain.ParseTier(middleware.GetTier(c))
	if len(req.Recipients) > 1 && !tier.Has(domain.CapBulkInvites) {
		response.Forbidden(c, "your tier does not allow bulk invites")
		return
	}

	result, err := h.invites.CreateInvites(ctx, userID, sessionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.NotFound(c, "session not found")
		case errors.Is(err, service.ErrNotSessionOwner):
			response.Forbidden(c, "you are not the owner of this session")
		case errors.Is(err, service.ErrSessionClosed):
			response.Conflict(c, "SESSION_CLOSED", "session is closed to new invites")
		default:
			l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to create invites")
			response.InternalError(c, "failed to create invites")
		}
		return
	}

	response.Created(c, result)
}

// ListInvites lists the invites of a session.
func (h *Handler) ListInvites(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	sessionID := c.Param("id")

	invites, err := h.invites.ListInvites(ctx, sessionID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to list invites")
		response.InternalError(c, "failed to list invites")
		return
	}

	response.Success(c, gin.H{"invites": invites})
}

// GetInvite retrieves an invite by token.
func (h *Handler) GetInvite(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	token := c.Param("token")

	invite, err := h.invites.GetInvite(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			response.NotFound(c, "invite not found")
			return
		}
		l.Error().Err(err).Msg("failed to get invite")
		response.InternalError(c, "failed to get invite")
		return
	}

	response.Success(c, invite)
}

// RateLimitInfo reports current usage without consuming quota.
func (h *Handler) RateLimitInfo(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	identity := middleware.GetUserID(c)
	if identity == "" {
		identity = "ip:" + c.ClientIP()
	}
	tier := domain.ParseTier(middleware.GetTier(c))
	endpoint := c.DefaultQuery("endpoint", "session_join")

	info, err := h.limiter.Info(ctx, identity, tier, endpoint)
	if err != nil {
		l.Error().Err(err).Msg("failed to read rate limit info")
		response.ServiceUnavailable(c, "counter store unavailable")
		return
	}

	response.Success(c, gin.H{
		"tier":         tier,
		"capabilities": tier.Capabilities(),
		"endpoint":     endpoint,
		"quota":        info,
	})
}

package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches internal/middleware/auth.go keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"
	FieldTier     = "tier"

	// Chat domain
	FieldSessionID     = "session_id"
	FieldRoomID        = "room_id"
	FieldParticipantID = "participant_id"
	FieldInviteID      = "invite_id"
	FieldEndpoint      = "endpoint"

	// Relay delivery
	FieldRelayRoom = "relay_room"
	FieldAttempt   = "attempt"
	FieldCircuit   = "circuit_state"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)

package audit

import (
	"context"

	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
)

// Audit actions for the session backend.
const (
	ActionCreateSession   = "session.create"
	ActionStartSession    = "session.start"
	ActionEndSession      = "session.end"
	ActionCancelSession   = "session.cancel"
	ActionJoinSession     = "session.join"
	ActionLeaveSession    = "session.leave"
	ActionCreateInvites   = "invite.create"
	ActionConsumeInvite   = "invite.consume"
	ActionRateLimitReject = "ratelimit.reject"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}

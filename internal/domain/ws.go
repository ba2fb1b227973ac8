package domain

// WebSocket message types exchanged with clients.
const (
	MsgTypeChatMessage = "chat_message"
	MsgTypeLeaveRoom   = "leave_room"
	MsgTypePing        = "ping"
	MsgTypePong        = "pong"
	MsgTypeError       = "error"
)

// WebSocket error codes.
const (
	WSErrCodeBadRequest = "BAD_REQUEST"
	WSErrCodeForbidden  = "FORBIDDEN"
	WSErrCodeInternal   = "INTERNAL_ERROR"
)

// BaseMessage carries the type discriminator of a ws frame.
type BaseMessage struct {
	Type string `json:"type"`
}

// ChatMessageWS is an inbound chat message frame.
type ChatMessageWS struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ErrorMessage is an outbound error frame.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorMessage builds an outbound error frame.
func NewErrorMessage(code, message string) ErrorMessage {
	return ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

package pubsub

import "fmt"

// Channel naming conventions for cross-instance chat fan-out.
const (
	ChannelRoom = "chat:room:%s"
)

// Event types broadcast between service instances.
const (
	EventChatMessage       = "chat_message"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
)

// RoomChannel returns the broadcast channel name for a room.
func RoomChannel(roomID string) string {
	return fmt.Sprintf(ChannelRoom, roomID)
}

// ChatMessagePayload is broadcast when a participant sends a message.
type ChatMessagePayload struct {
	MessageID       string `json:"message_id"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	Content         string `json:"content"`
}

// PresencePayload is broadcast when a participant joins or leaves.
type PresencePayload struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
}

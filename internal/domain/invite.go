package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// SessionInvite is a one-time, time-bounded credential granting room-join
// rights. Invites are retained after consumption for audit and statistics.
type SessionInvite struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	SessionID    string     `json:"session_id"`
	InviteeEmail string     `json:"invitee_email,omitempty"`
	InviteeName  string     `json:"invitee_name,omitempty"`
	IsConsumed   bool       `json:"is_consumed"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
	ConsumedByID *string    `json:"consumed_by_id,omitempty"`
}

// IsExpired reports whether the invite expired at the given time.
func (i *SessionInvite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsValid reports whether the invite can still be consumed.
func (i *SessionInvite) IsValid(now time.Time) bool {
	return !i.IsConsumed && !i.IsExpired(now)
}

// NewInviteToken returns a 256-bit opaque URL-safe token.
func NewInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// InviteRecipient is one entry of a bulk invite request. Email or name,
// at least one is required.
type InviteRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateInvitesRequest represents a bulk invite creation request.
type CreateInvitesRequest struct {
	Recipients     []InviteRecipient `json:"recipients" binding:"required,min=1,max=500"`
	ExpiresInHours int               `json:"expires_in_hours" binding:"required,min=1,max=720"`
}

// InviteResponse represents an invite in API responses.
type InviteResponse struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	SessionID    string     `json:"session_id"`
	InviteeEmail string     `json:"invitee_email,omitempty"`
	InviteeName  string     `json:"invitee_name,omitempty"`
	IsConsumed   bool       `json:"is_consumed"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
}

// ToResponse converts SessionInvite to InviteResponse.
func (i *SessionInvite) ToResponse() InviteResponse {
	return InviteResponse{
		ID:           i.ID,
		Token:        i.Token,
		SessionID:    i.SessionID,
		InviteeEmail: i.InviteeEmail,
		InviteeName:  i.InviteeName,
		IsConsumed:   i.IsConsumed,
		CreatedAt:    i.CreatedAt,
		ExpiresAt:    i.ExpiresAt,
		ConsumedAt:   i.ConsumedAt,
	}
}

// BulkInviteResult reports the outcome of a bulk invite creation.
// Errors keep recipient order so callers can correlate failures.
type BulkInviteResult struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Invites    []InviteResponse `json:"invites"`
	Errors     []string         `json:"errors,omitempty"`
}

// InviteModel is the GORM model for session_invites table.
type InviteModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Token        string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	SessionID    string    `gorm:"type:varchar(36);index;not null"`
	InviteeEmail string    `gorm:"type:varchar(254)"`
	InviteeName  string    `gorm:"type:varchar(100)"`
	IsConsumed   bool      `gorm:"index;not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"index;not null"`
	ConsumedAt   *time.Time
	ConsumedByID *string `gorm:"type:varchar(36)"`
}

// TableName specifies the table name for InviteModel.
func (InviteModel) TableName() string {
	return "session_invites"
}

// ToDomain converts InviteModel to domain SessionInvite.
func (m *InviteModel) ToDomain() *SessionInvite {
	return &SessionInvite{
		ID:           m.ID,
		Token:        m.Token,
		SessionID:    m.SessionID,
		InviteeEmail: m.InviteeEmail,
		InviteeName:  m.InviteeName,
		IsConsumed:   m.IsConsumed,
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
		ConsumedAt:   m.ConsumedAt,
		ConsumedByID: m.ConsumedByID,
	}
}

// InviteToModel converts domain SessionInvite to InviteModel.
func InviteToModel(i *SessionInvite) *InviteModel {
	return &InviteModel{
		ID:           i.ID,
		Token:        i.Token,
		SessionID:    i.SessionID,
		InviteeEmail: i.InviteeEmail,
		InviteeName:  i.InviteeName,
		IsConsumed:   i.IsConsumed,
		CreatedAt:    i.CreatedAt,
		ExpiresAt:    i.ExpiresAt,
		ConsumedAt:   i.ConsumedAt,
		ConsumedByID: i.ConsumedByID,
	}
}

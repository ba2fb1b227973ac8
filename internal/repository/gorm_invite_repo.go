package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
)

// GormInviteRepository implements InviteRepository using GORM.
type GormInviteRepository struct {
	db *gorm.DB
}

// NewGormInviteRepository creates a new GORM-based invite repository.
func NewGormInviteRepository(db *gorm.DB) *GormInviteRepository {
	return &GormInviteRepository{db: db}
}

// Create creates a new invite.
func (r *GormInviteRepository) Create(ctx context.Context, invite *domain.SessionInvite) error {
	l := log.Ctx(ctx)

	invite.ID = uuid.New().String()

	model := domain.InviteToModel(invite)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create invite in db")
		return result.Error
	}

	invite.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldInviteID, invite.ID).Str(log.FieldSessionID, invite.SessionID).Msg("invite created in db")
	return nil
}

// GetByToken retrieves an invite by its opaque token.
func (r *GormInviteRepository) GetByToken(ctx context.Context, token string) (*domain.SessionInvite, error) {
	l := log.Ctx(ctx)

	var model domain.InviteModel
	result := r.db.WithContext(ctx).First(&model, "token = ?", token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		l.Error().Err(result.Error).Msg("failed to get invite by token")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListBySession retrieves all invites of a session.
func (r *GormInviteRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.SessionInvite, error) {
	l := log.Ctx(ctx)

	var models []domain.InviteModel
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to list invites from db")
		return nil, result.Error
	}

	invites := make([]domain.SessionInvite, len(models))
	for i, model := range models {
		invites[i] = *model.ToDomain()
	}
	return invites, nil
}

// Consume marks an invite consumed iff it is still unconsumed and
// unexpired. The whole check-then-act is a single conditional UPDATE,
// so exactly one of N concurrent redemptions can win. When the update
// matches nothing, the row is reloaded to report the precise reason.
func (r *GormInviteRepository) Consume(ctx context.Context, token string, consumerID *string, now time.Time) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.InviteModel{}).
		Where("token = ? AND is_consumed = ? AND expires_at > ?", token, false, now).
		Updates(map[string]interface{}{
			"is_consumed":    true,
			"consumed_at":    now,
			"consumed_by_id": consumerID,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to consume invite in db")
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	invite, err := r.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if invite.IsConsumed {
		return ErrInviteConsumed
	}
	if invite.IsExpired(now) {
		return ErrInviteExpired
	}
	// Lost a race that has since resolved; treat as consumed.
	return ErrInviteConsumed
}

// Stats returns total and consumed invite counts for a session.
func (r *GormInviteRepository) Stats(ctx context.Context, sessionID string) (int, int, error) {
	l := log.Ctx(ctx)

	var total, consumed int64
	if err := r.db.WithContext(ctx).Model(&domain.InviteModel{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to count invites")
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.InviteModel{}).
		Where("session_id = ? AND is_consumed = ?", sessionID, true).
		Count(&consumed).Error; err != nil {
		l.Error().Err(err).Str(log.FieldSessionID, sessionID).Msg("failed to count consumed invites")
		return 0, 0, err
	}
	return int(total), int(consumed), nil
}

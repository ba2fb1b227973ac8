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

// GormSessionRepository implements SessionRepository using GORM.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GORM-based session repository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Create creates a new session in scheduled status.
func (r *GormSessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	l := log.Ctx(ctx)

	session.ID = uuid.New().String()
	session.Status = domain.SessionStatusScheduled

	model := domain.SessionToModel(session)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create session in db")
		return result.Error
	}

	session.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldSessionID, session.ID).Msg("session created in db")
	return nil
}

// GetByID retrieves a session by ID.
func (r *GormSessionRepository) GetByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	l := log.Ctx(ctx)

	var model domain.SessionModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldSessionID, id).Msg("failed to get session by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves sessions with pagination.
func (r *GormSessionRepository) List(ctx context.Context, page, pageSize int, status string) ([]domain.ChatSession, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.SessionModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count sessions")
		return nil, 0, err
	}

	var models []domain.SessionModel
	if err := query.Order("scheduled_start_time DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list sessions from db")
		return nil, 0, err
	}

	sessions := make([]domain.ChatSession, len(models))
	for i, model := range models {
		sessions[i] = *model.ToDomain()
	}

	return sessions, int(total), nil
}

// ListByCreator retrieves sessions created by a user.
func (r *GormSessionRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.ChatSession, error) {
	l := log.Ctx(ctx)

	var models []domain.SessionModel
	result := r.db.WithContext(ctx).
		Where("created_by_id = ?", creatorID).
		Order("scheduled_start_time DESC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldUserID, creatorID).Msg("failed to list sessions by creator")
		return nil, result.Error
	}

	sessions := make([]domain.ChatSession, len(models))
	for i, model := range models {
		sessions[i] = *model.ToDomain()
	}
	return sessions, nil
}

// MarkStarted transitions scheduled -> active. The status guard makes a
// second start fail instead of silently succeeding.
func (r *GormSessionRepository) MarkStarted(ctx context.Context, id string, at time.Time) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.SessionModel{}).
		Where("id = ? AND status = ?", id, string(domain.SessionStatusScheduled)).
		Updates(map[string]interface{}{
			"status":     string(domain.SessionStatusActive),
			"started_at": at,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, id).Msg("failed to mark session started")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	l.Debug().Str(log.FieldSessionID, id).Msg("session marked started in db")
	return nil
}

// MarkEnded transitions active -> ended/completed.
func (r *GormSessionRepository) MarkEnded(ctx context.Context, id string, status domain.SessionStatus, at time.Time) error {
	l := log.Ctx(ctx)

	if status != domain.SessionStatusEnded && status != domain.SessionStatusCompleted {
		return ErrInvalidTransition
	}

	result := r.db.WithContext(ctx).Model(&domain.SessionModel{}).
		Where("id = ? AND status = ?", id, string(domain.SessionStatusActive)).
		Updates(map[string]interface{}{
			"status":   string(status),
			"ended_at": at,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, id).Msg("failed to mark session ended")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// MarkCancelled terminates from scheduled or active.
func (r *GormSessionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.SessionModel{}).
		Where("id = ? AND status IN ?", id, []string{
			string(domain.SessionStatusScheduled),
			string(domain.SessionStatusActive),
		}).
		Updates(map[string]interface{}{
			"status":   string(domain.SessionStatusCancelled),
			"ended_at": at,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, id).Msg("failed to cancel session")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

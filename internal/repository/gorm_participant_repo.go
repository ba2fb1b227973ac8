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

// GormParticipantRepository implements ParticipantRepository using GORM.
type GormParticipantRepository struct {
	db *gorm.DB
}

// NewGormParticipantRepository creates a new GORM-based participant repository.
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	return &GormParticipantRepository{db: db}
}

// Create creates a new participant row.
func (r *GormParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	l := log.Ctx(ctx)

	p.ID = uuid.New().String()
	p.IsActive = true
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}

	model := domain.ParticipantToModel(p)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create participant in db")
		return result.Error
	}

	l.Debug().Str(log.FieldParticipantID, p.ID).Str(log.FieldRoomID, p.RoomID).Msg("participant created in db")
	return nil
}

// GetByID retrieves a participant by ID.
func (r *GormParticipantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	l := log.Ctx(ctx)

	var model domain.ParticipantModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldParticipantID, id).Msg("failed to get participant by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListActiveByRoom retrieves active participants of a room.
func (r *GormParticipantRepository) ListActiveByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	l := log.Ctx(ctx)

	var models []domain.ParticipantModel
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Order("joined_at ASC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to list room participants")
		return nil, result.Error
	}

	participants := make([]domain.Participant, len(models))
	for i, model := range models {
		participants[i] = *model.ToDomain()
	}
	return participants, nil
}

// MarkLeft marks a participant inactive, stamps left_at and clears the
// connection id. The is_active guard makes a double leave fail.
func (r *GormParticipantRepository) MarkLeft(ctx context.Context, id string, at time.Time) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.ParticipantModel{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"left_at":       at,
			"connection_id": nil,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldParticipantID, id).Msg("failed to mark participant left")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyLeft
	}
	return nil
}

// UpdateConnection records or clears the live connection id.
func (r *GormParticipantRepository) UpdateConnection(ctx context.Context, id string, connectionID *string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.ParticipantModel{}).
		Where("id = ?", id).
		Update("connection_id", connectionID)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldParticipantID, id).Msg("failed to update participant connection")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

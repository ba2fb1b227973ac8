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

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM-based room repository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// Create creates a new room in waiting status.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.ChatRoom) error {
	l := log.Ctx(ctx)

	room.ID = uuid.New().String()
	if room.Status == "" {
		room.Status = domain.RoomStatusWaiting
	}

	model := domain.RoomToModel(room)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create room in db")
		return result.Error
	}

	room.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldRoomID, room.ID).Str(log.FieldSessionID, room.SessionID).Msg("room created in db")
	return nil
}

// GetByID retrieves a room by ID.
func (r *GormRoomRepository) GetByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	l := log.Ctx(ctx)

	var model domain.RoomModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldRoomID, id).Msg("failed to get room by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListBySession retrieves all rooms of a session.
func (r *GormRoomRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ChatRoom, error) {
	l := log.Ctx(ctx)

	var models []domain.RoomModel
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to list rooms from db")
		return nil, result.Error
	}

	rooms := make([]domain.ChatRoom, len(models))
	for i, model := range models {
		rooms[i] = *model.ToDomain()
	}
	return rooms, nil
}

// FindAssignable returns open rooms that still have space, fullest
// first, so the allocator packs rooms before opening new ones.
func (r *GormRoomRepository) FindAssignable(ctx context.Context, sessionID string) ([]domain.ChatRoom, error) {
	l := log.Ctx(ctx)

	var models []domain.RoomModel
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND status <> ? AND participant_count < max_participants",
			sessionID, string(domain.RoomStatusClosed)).
		Order("participant_count DESC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to find assignable rooms")
		return nil, result.Error
	}

	rooms := make([]domain.ChatRoom, len(models))
	for i, model := range models {
		rooms[i] = *model.ToDomain()
	}
	return rooms, nil
}

// CountBySession counts rooms of a session.
func (r *GormRoomRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	l := log.Ctx(ctx)

	var count int64
	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("session_id = ?", sessionID).
		Count(&count)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to count rooms")
	}
	return int(count), result.Error
}

// TotalParticipants sums live occupancy across a session's rooms.
func (r *GormRoomRepository) TotalParticipants(ctx context.Context, sessionID string) (int, error) {
	l := log.Ctx(ctx)

	var total int64
	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(participant_count), 0)").
		Scan(&total)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to sum participants")
	}
	return int(total), result.Error
}

// IncrementParticipants atomically adds one occupant. The capacity guard
// lives in the WHERE clause, not in application code, so concurrent
// joins across instances cannot overshoot.
func (r *GormRoomRepository) IncrementParticipants(ctx context.Context, roomID string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("id = ? AND status <> ? AND participant_count < max_participants",
			roomID, string(domain.RoomStatusClosed)).
		Updates(map[string]interface{}{
			"participant_count": gorm.Expr("participant_count + 1"),
			"status":            string(domain.RoomStatusActive),
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to increment room occupancy")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomFull
	}
	return nil
}

// DecrementParticipants atomically removes one occupant, floored at
// zero. An emptied room reverts to waiting and becomes assignable again.
func (r *GormRoomRepository) DecrementParticipants(ctx context.Context, roomID string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("id = ? AND participant_count > 0", roomID).
		Update("participant_count", gorm.Expr("participant_count - 1"))
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to decrement room occupancy")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}

	// Emptied rooms become waiting again.
	result = r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("id = ? AND participant_count = 0 AND status = ?", roomID, string(domain.RoomStatusActive)).
		Update("status", string(domain.RoomStatusWaiting))
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to reset empty room status")
		return result.Error
	}
	return nil
}

// CloseBySession closes every open room of a session.
func (r *GormRoomRepository) CloseBySession(ctx context.Context, sessionID string, at time.Time) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("session_id = ? AND status <> ?", sessionID, string(domain.RoomStatusClosed)).
		Updates(map[string]interface{}{
			"status":    string(domain.RoomStatusClosed),
			"closed_at": at,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldSessionID, sessionID).Msg("failed to close session rooms")
		return result.Error
	}
	l.Debug().Str(log.FieldSessionID, sessionID).Int64("rooms", result.RowsAffected).Msg("session rooms closed")
	return nil
}

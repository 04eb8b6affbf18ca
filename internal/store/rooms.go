package store

import (
	"context"
	"database/sql"
	"errors"

	"hotel-service/internal/apperr"
	"hotel-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const roomColumns = "id, room_number, price_per_night, available, created_at"

// GetRoomByID retrieves a room by ID
func (q queries) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	return q.getRoom(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", id)
}

// LockRoomForUpdate loads a room and serializes bookings for it until the transaction ends
func (q queries) LockRoomForUpdate(ctx context.Context, id int64) (*models.Room, error) {
	return q.getRoom(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = $1 FOR UPDATE", id)
}

func (q queries) getRoom(ctx context.Context, query string, id int64) (*models.Room, error) {
	var room models.Room
	err := sqlx.GetContext(ctx, q.q, &room, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("room not found: %d", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load room %d", id)
	}
	return &room, nil
}

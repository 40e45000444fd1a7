package history

import (
	"context"
	"database/sql"
	"time"
)

type SessionDTO struct {
	RoomID      string     `json:"room_id"      example:"fashion-1"`
	Category    string     `json:"category"     example:"fashion"`
	OwnerID     string     `json:"owner_id"     example:"system"`
	OpenedAt    time.Time  `json:"opened_at"    example:"2025-07-27T16:05:05Z"`
	ClosedAt    *time.Time `json:"closed_at"    example:"2025-07-27T17:05:05Z"`
	PeakMembers int        `json:"peak_members" example:"4"`
}

// Schema creates the room_sessions table used by the history writer.
const Schema = `
CREATE TABLE IF NOT EXISTS room_sessions (
    room_id      TEXT        NOT NULL,
    category     TEXT        NOT NULL DEFAULT '',
    owner_id     TEXT        NOT NULL DEFAULT '',
    opened_at    TIMESTAMPTZ NOT NULL,
    closed_at    TIMESTAMPTZ,
    peak_members INTEGER     NOT NULL DEFAULT 0,
    PRIMARY KEY (room_id, opened_at)
)`

type IHistoryService interface {
	ListSessions(ctx context.Context, roomID string, limit, offset int) ([]SessionDTO, error)
}

type historyService struct {
	db *sql.DB
}

var _ IHistoryService = (*historyService)(nil)

func NewHistoryService(db *sql.DB) IHistoryService {
	return &historyService{db: db}
}

// EnsureSchema applies Schema; it is safe to call on every boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

// ListSessions pages through room sessions, newest first, optionally for one room id.
func (svc *historyService) ListSessions(ctx context.Context, roomID string,
	limit, offset int) ([]SessionDTO, error) {

	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT room_id, category, owner_id, opened_at, closed_at, peak_members
	           FROM room_sessions`
	if roomID != "" {
		rows, err = svc.db.QueryContext(ctx, base+" WHERE room_id = $1 ORDER BY opened_at DESC LIMIT $2 OFFSET $3",
			roomID, limit, offset)
	} else {
		rows, err = svc.db.QueryContext(ctx, base+" ORDER BY opened_at DESC LIMIT $1 OFFSET $2",
			limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]SessionDTO, 0, limit)
	for rows.Next() {
		var (
			s      SessionDTO
			closed sql.NullTime
		)
		if err := rows.Scan(&s.RoomID, &s.Category, &s.OwnerID,
			&s.OpenedAt, &closed, &s.PeakMembers); err != nil {
			return nil, err
		}
		if closed.Valid {
			at := closed.Time
			s.ClosedAt = &at
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

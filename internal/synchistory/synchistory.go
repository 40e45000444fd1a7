package synchistory

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"meetingrelay/internal/redis/roommirror"
)

const (
	batchSize = 100
	blockFor  = 2000 * time.Millisecond
)

// Rows are keyed by (room_id, opened_at) where opened_at is the room's
// created_at, so a room id reused after a close starts a new row.
const (
	insertOpened = `INSERT INTO room_sessions (room_id, category, owner_id, opened_at, peak_members)
	                VALUES ($1, $2, $3, $4, $5)
	                ON CONFLICT DO NOTHING`
	updateChanged = `UPDATE room_sessions SET peak_members = GREATEST(peak_members, $2)
	                  WHERE room_id = $1 AND opened_at = $3`
	updateClosed = `UPDATE room_sessions SET closed_at = $2
	                 WHERE room_id = $1 AND opened_at = $3 AND closed_at IS NULL`
	closeStale = `UPDATE room_sessions SET closed_at = $1
	               WHERE closed_at IS NULL AND opened_at < $1`
)

var errMalformed = errors.New("malformed stream entry")

// Run tails the room lifecycle stream and records every session in Postgres.
// Once the backlog is replayed, sessions opened before startedAt that are
// still open belonged to an earlier process and are closed at startedAt.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB, startedAt time.Time) {
	go func() {
		lastID := "0-0"
		swept := false
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			next, err := pump(ctx, rdc, db, lastID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				zap.L().Warn("synchistory.pump", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if next == lastID && !swept {
				n, err := sweepStale(ctx, db, startedAt)
				if err != nil {
					zap.L().Warn("synchistory.sweep", zap.Error(err))
				} else {
					swept = true
					zap.L().Info("synchistory.sweep", zap.Int64("closed", n))
				}
			}
			lastID = next
		}
	}()
}

// sweepStale closes sessions left open by a previous run.
func sweepStale(ctx context.Context, db *sql.DB, startedAt time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, closeStale, startedAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// pump reads one batch after lastID, persists it and returns the id to
// resume from. On a persist failure lastID is kept so the batch is retried.
func pump(ctx context.Context, rdc *redis.Client, db *sql.DB, lastID string) (string, error) {
	res, err := rdc.XRead(ctx, &redis.XReadArgs{
		Streams: []string{roommirror.Stream, lastID},
		Count:   batchSize,
		Block:   blockFor,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return lastID, err
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		return lastID, nil
	}

	entries := res[0].Messages
	if err := persist(ctx, db, entries); err != nil {
		return lastID, err
	}
	return entries[len(entries)-1].ID, nil
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if err := apply(ctx, tx, m); err != nil {
			if errors.Is(err, errMalformed) {
				zap.L().Warn("synchistory.skip", zap.String("id", m.ID), zap.Error(err))
				continue
			}
			return err
		}
	}
	return tx.Commit()
}

func apply(ctx context.Context, tx *sql.Tx, m redis.XMessage) error {
	kind := field(m.Values, "kind")
	roomID := field(m.Values, "room_id")
	at, err := millis(m.Values, "at")
	if roomID == "" || err != nil {
		return errMalformed
	}
	openedAt, err := millis(m.Values, "created_at")
	if err != nil {
		return errMalformed
	}
	members, _ := strconv.Atoi(field(m.Values, "member_count"))

	switch kind {
	case "opened":
		_, err = tx.ExecContext(ctx, insertOpened,
			roomID, field(m.Values, "category"), field(m.Values, "owner_id"), openedAt, members)
	case "changed":
		_, err = tx.ExecContext(ctx, updateChanged, roomID, members, openedAt)
	case "closed":
		_, err = tx.ExecContext(ctx, updateClosed, roomID, at, openedAt)
	default:
		return errMalformed
	}
	return err
}

func field(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return s
}

func millis(values map[string]any, key string) (time.Time, error) {
	ms, err := strconv.ParseInt(field(values, key), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

package synchistory

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingrelay/internal/redis/roommirror"
)

const atMs = "1753632305000"

var at = time.UnixMilli(1753632305000).UTC()

func readArgs(lastID string) *redis.XReadArgs {
	return &redis.XReadArgs{
		Streams: []string{roommirror.Stream, lastID},
		Count:   batchSize,
		Block:   blockFor,
	}
}

func entry(id, kind, members string) redis.XMessage {
	return sessionEntry(id, kind, members, atMs, atMs)
}

func sessionEntry(id, kind, members, createdMs, eventMs string) redis.XMessage {
	return redis.XMessage{ID: id, Values: map[string]any{
		"kind":         kind,
		"room_id":      "r1",
		"category":     "Books",
		"owner_id":     "p1",
		"member_count": members,
		"created_at":   createdMs,
		"at":           eventMs,
	}}
}

func TestPump_PersistsLifecycle(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rmock.ExpectXRead(readArgs("0-0")).SetVal([]redis.XStream{{
		Stream: roommirror.Stream,
		Messages: []redis.XMessage{
			entry("1-0", "opened", "1"),
			entry("2-0", "changed", "3"),
			{ID: "2-1", Values: map[string]any{"kind": "opened"}},
			entry("3-0", "closed", "0"),
		},
	}})

	smock.ExpectBegin()
	smock.ExpectExec(regexp.QuoteMeta("INSERT INTO room_sessions")).
		WithArgs("r1", "Books", "p1", at, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(regexp.QuoteMeta("SET peak_members = GREATEST(peak_members, $2)")).
		WithArgs("r1", 3, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(regexp.QuoteMeta("SET closed_at = $2")).
		WithArgs("r1", at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	next, err := pump(context.Background(), rdc, db, "0-0")
	require.NoError(t, err)
	assert.Equal(t, "3-0", next)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestPump_EmptyRead(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rmock.ExpectXRead(readArgs("5-0")).RedisNil()

	next, err := pump(context.Background(), rdc, db, "5-0")
	require.NoError(t, err)
	assert.Equal(t, "5-0", next)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestPump_RetriesBatchOnDBError(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rmock.ExpectXRead(readArgs("0-0")).SetVal([]redis.XStream{{
		Stream:   roommirror.Stream,
		Messages: []redis.XMessage{entry("1-0", "opened", "1")},
	}})
	smock.ExpectBegin()
	smock.ExpectExec("INSERT").WillReturnError(errors.New("db down"))
	smock.ExpectRollback()

	next, err := pump(context.Background(), rdc, db, "0-0")
	assert.EqualError(t, err, "db down")
	assert.Equal(t, "0-0", next, "failed batch is read again")
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestPump_ReusedRoomIDKeepsSessionsApart(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const (
		firstMs  = "1753632305000"
		secondMs = "1753632365000"
	)
	first := time.UnixMilli(1753632305000).UTC()
	second := time.UnixMilli(1753632365000).UTC()

	// The first session is still open when a second one with the same id
	// shows up, as happens when the closing event of a crashed run is lost.
	rmock.ExpectXRead(readArgs("0-0")).SetVal([]redis.XStream{{
		Stream: roommirror.Stream,
		Messages: []redis.XMessage{
			sessionEntry("1-0", "opened", "1", firstMs, firstMs),
			sessionEntry("2-0", "opened", "1", secondMs, secondMs),
			sessionEntry("3-0", "changed", "4", secondMs, secondMs),
			sessionEntry("4-0", "closed", "0", secondMs, "1753632425000"),
		},
	}})

	smock.ExpectBegin()
	smock.ExpectExec(regexp.QuoteMeta("INSERT INTO room_sessions")).
		WithArgs("r1", "Books", "p1", first, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(regexp.QuoteMeta("INSERT INTO room_sessions")).
		WithArgs("r1", "Books", "p1", second, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(regexp.QuoteMeta("WHERE room_id = $1 AND opened_at = $3")).
		WithArgs("r1", 4, second).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(regexp.QuoteMeta("WHERE room_id = $1 AND opened_at = $3 AND closed_at IS NULL")).
		WithArgs("r1", time.UnixMilli(1753632425000).UTC(), second).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	next, err := pump(context.Background(), rdc, db, "0-0")
	require.NoError(t, err)
	assert.Equal(t, "4-0", next)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestPump_SkipsEntryWithoutCreatedAt(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	legacy := entry("1-0", "changed", "2")
	delete(legacy.Values, "created_at")
	rmock.ExpectXRead(readArgs("0-0")).SetVal([]redis.XStream{{
		Stream:   roommirror.Stream,
		Messages: []redis.XMessage{legacy},
	}})
	smock.ExpectBegin()
	smock.ExpectCommit()

	next, err := pump(context.Background(), rdc, db, "0-0")
	require.NoError(t, err)
	assert.Equal(t, "1-0", next)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestSweepStale(t *testing.T) {
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	startedAt := time.Date(2025, 7, 27, 18, 0, 0, 0, time.UTC)
	smock.ExpectExec(regexp.QuoteMeta("UPDATE room_sessions SET closed_at = $1")).
		WithArgs(startedAt).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := sweepStale(context.Background(), db, startedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, smock.ExpectationsWereMet())
}

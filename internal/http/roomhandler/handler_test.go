package roomhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingrelay/internal/services/history"
	"meetingrelay/internal/services/meeting"
)

type fakeHistory struct {
	gotRoom          string
	gotLimit, gotOff int
	out              []history.SessionDTO
	err              error
}

func (f *fakeHistory) ListSessions(_ context.Context, roomID string, limit, offset int) ([]history.SessionDTO, error) {
	f.gotRoom, f.gotLimit, f.gotOff = roomID, limit, offset
	return f.out, f.err
}

func newEngine(t *testing.T, hist history.IHistoryService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := meeting.NewDirectory()
	dir.Seed("fashion-1", "fashion")
	svc := meeting.NewMeetingService(meeting.NewRegistry(), dir)

	engine := gin.New()
	New(svc, hist).Register(engine)
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestRooms(t *testing.T) {
	engine := newEngine(t, nil)

	w := get(engine, "/api/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []meeting.RoomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "fashion-1", rooms[0].RoomID)
	assert.Equal(t, meeting.SystemOwnerID, rooms[0].Owner.ParticipantID)

	w = get(engine, "/api/rooms/fashion-1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(engine, "/api/rooms/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"unknown_room"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	w := get(newEngine(t, nil), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connections":0,"rooms":1}`, w.Body.String())
}

func TestSessions(t *testing.T) {
	w := get(newEngine(t, nil), "/api/room-sessions")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	hist := &fakeHistory{out: []history.SessionDTO{{RoomID: "r1", PeakMembers: 2}}}
	engine := newEngine(t, hist)

	w = get(engine, "/api/room-sessions?room_id=r1&limit=5&offset=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", hist.gotRoom)
	assert.Equal(t, 5, hist.gotLimit)
	assert.Equal(t, 2, hist.gotOff)

	w = get(engine, "/api/room-sessions?limit=500")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	hist.err = errors.New("db down")
	w = get(engine, "/api/room-sessions")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 10, hist.gotLimit, "default page size")
}

package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lifecycle(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", &recorder{})

	c, ok := reg.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, ConnID("c1"), c.ID)
	assert.Empty(t, c.ParticipantID)
	assert.False(t, c.joined())

	require.NoError(t, reg.Identify("c1", "p1", "Alice", RoleOwner))
	require.NoError(t, reg.bindRoom("c1", "r1", time.Unix(10, 0)))

	c, _ = reg.Lookup("c1")
	assert.Equal(t, "p1", c.ParticipantID)
	assert.Equal(t, "Alice", c.DisplayName)
	assert.Equal(t, RoleOwner, c.Role)
	assert.Equal(t, "r1", c.RoomID)
	assert.True(t, c.AudioEnabled)
	assert.True(t, c.VideoEnabled)

	reg.unbindRoom("c1")
	c, _ = reg.Lookup("c1")
	assert.Empty(t, c.RoomID)
	assert.Empty(t, c.ParticipantID)
	assert.Equal(t, "Alice", c.DisplayName)

	prev, ok := reg.Remove("c1")
	assert.True(t, ok)
	assert.Equal(t, ConnID("c1"), prev.ID)

	_, ok = reg.Remove("c1")
	assert.False(t, ok, "second remove must be a no-op")
	_, ok = reg.Lookup("c1")
	assert.False(t, ok)
	assert.Zero(t, reg.Count())
}

func TestRegistry_IdentifyUnknown(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Identify("ghost", "p", "n", RoleParticipant), ErrUnknownConnection)

	reg.Register("c1", nil)
	reg.Remove("c1")
	assert.ErrorIs(t, reg.Identify("c1", "p", "n", RoleParticipant), ErrUnknownConnection)
}

func TestRegistry_SetMedia(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", nil)

	require.NoError(t, reg.SetMedia("c1", MediaAudio, false))
	require.NoError(t, reg.SetMedia("c1", MediaVideo, true))
	c, _ := reg.Lookup("c1")
	assert.False(t, c.AudioEnabled)
	assert.True(t, c.VideoEnabled)

	assert.ErrorIs(t, reg.SetMedia("c1", "screen", true), ErrUnknownMediaKind)
	assert.ErrorIs(t, reg.SetMedia("nope", MediaAudio, true), ErrUnknownConnection)
}

func TestRegistry_OutboxMissing(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", nil)
	_, ok := reg.outbox("c1")
	assert.False(t, ok)
	_, ok = reg.outbox("c2")
	assert.False(t, ok)
}

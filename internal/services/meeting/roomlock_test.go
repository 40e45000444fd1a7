package meeting

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomLocks_SerialisesSameRoom(t *testing.T) {
	locks := newRoomLocks()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("r1")
			v := counter
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.size(), "idle locks are released")
}

func TestRoomLocks_IndependentRooms(t *testing.T) {
	locks := newRoomLocks()
	unlockA := locks.lock("a")
	unlockB := locks.lock("b") // must not deadlock while "a" is held
	assert.Equal(t, 2, locks.size())
	unlockB()
	unlockA()
	assert.Zero(t, locks.size())
}

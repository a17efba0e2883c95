package signaling

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryJoinCreatesRoom(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Exists("ab12"))

	before := r.Join("ab12", "alice")
	assert.Equal(t, 0, before)
	assert.True(t, r.Exists("ab12"))
	assert.Equal(t, []string{"alice"}, r.Members("ab12"))

	before = r.Join("ab12", "bob")
	assert.Equal(t, 1, before)
	assert.ElementsMatch(t, []string{"alice", "bob"}, r.Members("ab12"))
}

func TestRegistryJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Join("ab12", "alice")
	r.Join("ab12", "alice")
	r.Join("ab12", "alice")

	assert.Equal(t, []string{"alice"}, r.Members("ab12"))
}

func TestRegistryLeaveDiscardsEmptyRoom(t *testing.T) {
	r := NewRegistry()

	r.Join("ab12", "alice")
	r.Join("ab12", "bob")

	r.Leave("ab12", "alice")
	assert.True(t, r.Exists("ab12"))
	assert.Equal(t, []string{"bob"}, r.Members("ab12"))

	r.Leave("ab12", "bob")

	// A drained room must be indistinguishable from one that never existed.
	assert.False(t, r.Exists("ab12"))
	assert.Equal(t, 0, r.RoomCount())
}

func TestRegistryLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Join("ab12", "alice")
	r.Join("ab12", "bob")

	r.Leave("ab12", "alice")
	r.Leave("ab12", "alice")
	r.Leave("ab12", "ghost")
	r.Leave("nosuch", "alice")

	assert.Equal(t, []string{"bob"}, r.Members("ab12"))
}

func TestRegistryMembershipMatchesHistory(t *testing.T) {
	r := NewRegistry()

	joined := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("m%d", i)
		r.Join("room", id)
		joined[id] = true
	}
	for i := 0; i < 20; i += 2 {
		id := fmt.Sprintf("m%d", i)
		r.Leave("room", id)
		delete(joined, id)
	}

	members := r.Members("room")
	require.Len(t, members, len(joined))
	for _, id := range members {
		assert.True(t, joined[id], "unexpected member %s", id)
	}
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("m%d", i)
			room := fmt.Sprintf("room%d", i%5)
			r.Join(room, id)
			r.Leave(room, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.RoomCount())
}

package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myve/internal/types"
)

func TestKeyNormalization(t *testing.T) {
	assert.Equal(t, Key("u1", "Can I buy a bike?"), Key("u1", "  can i BUY a bike?  "))
	assert.NotEqual(t, Key("u1", "can i buy a bike?"), Key("u2", "can i buy a bike?"))
}

func TestGetPutAndTTL(t *testing.T) {
	c := New(time.Minute, 10, nil)
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	key := Key("u1", "can i buy a bike?")
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, "u1", types.Reply{Response: "yes"})
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "yes", got.Response)

	clock = clock.Add(61 * time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(time.Hour, 3, nil)
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		c.Put(Key("u1", fmt.Sprintf("q%d", i)), "u1", types.Reply{Response: fmt.Sprintf("r%d", i)})
		clock = clock.Add(time.Second)
	}
	// Touch q0 so q1 becomes the eviction candidate.
	_, ok := c.Get(Key("u1", "q0"))
	require.True(t, ok)
	clock = clock.Add(time.Second)

	c.Put(Key("u1", "q3"), "u1", types.Reply{Response: "r3"})
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get(Key("u1", "q1"))
	assert.False(t, ok)
	_, ok = c.Get(Key("u1", "q0"))
	assert.True(t, ok)
}

func TestInvalidateUser(t *testing.T) {
	c := New(time.Hour, 10, nil)
	c.Put(Key("u1", "a"), "u1", types.Reply{})
	c.Put(Key("u1", "b"), "u1", types.Reply{})
	c.Put(Key("u2", "a"), "u2", types.Reply{})

	c.InvalidateUser("u1")
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(Key("u2", "a"))
	assert.True(t, ok)
}

func TestSweep(t *testing.T) {
	c := New(time.Minute, 10, nil)
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Put(Key("u1", "old"), "u1", types.Reply{})
	clock = clock.Add(2 * time.Minute)
	c.Put(Key("u1", "fresh"), "u1", types.Reply{})

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

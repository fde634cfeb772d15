package idempotency

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReplayAfterComplete(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	cached, owner := store.Acquire("k1")
	require.Nil(t, cached)
	require.True(t, owner)

	store.Complete("k1", &Response{Status: 201, Body: []byte(`{"ok":true}`)})

	cached, owner = store.Acquire("k1")
	require.NotNil(t, cached)
	assert.False(t, owner)
	assert.Equal(t, 201, cached.Status)
	assert.Equal(t, []byte(`{"ok":true}`), cached.Body)
}

func TestWaitersGetOwnersResponse(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	_, owner := store.Acquire("k1")
	require.True(t, owner)

	var wg sync.WaitGroup
	results := make([]*Response, 5)
	for i := 0; i < 5; i++ {
		cached, own := store.Acquire("k1")
		require.Nil(t, cached)
		require.False(t, own)

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = store.Wait("k1")
		}(i)
	}

	store.Complete("k1", &Response{Status: 200, Body: []byte("done")})
	wg.Wait()

	for _, resp := range results {
		require.NotNil(t, resp)
		assert.Equal(t, []byte("done"), resp.Body)
	}
}

func TestAbandonReleasesWaitersWithoutCaching(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	_, owner := store.Acquire("k1")
	require.True(t, owner)

	_, own := store.Acquire("k1")
	require.False(t, own)

	waited := make(chan *Response, 1)
	go func() { waited <- store.Wait("k1") }()

	store.Abandon("k1")

	select {
	case resp := <-waited:
		assert.Nil(t, resp)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}

	// The key is free again; the next request becomes owner.
	_, owner = store.Acquire("k1")
	assert.True(t, owner)
}

func TestExpiredEntryYieldsOwnership(t *testing.T) {
	store := NewStore(10 * time.Millisecond)
	defer store.Close()

	_, owner := store.Acquire("k1")
	require.True(t, owner)
	store.Complete("k1", &Response{Status: 200})

	time.Sleep(30 * time.Millisecond)

	cached, owner := store.Acquire("k1")
	assert.Nil(t, cached)
	assert.True(t, owner)
}

func TestKeysAreIndependent(t *testing.T) {
	store := NewStore(time.Minute)
	defer store.Close()

	_, owner := store.Acquire("k1")
	require.True(t, owner)

	_, owner = store.Acquire("k2")
	assert.True(t, owner)
}

package api

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenShape = regexp.MustCompile("^[0-9a-f]{64}$")

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := NewMemorySessionStore()

	token, err := store.Create(true)
	require.NoError(t, err)
	assert.Regexp(t, tokenShape, token)

	session, ok := store.Get(token)
	require.True(t, ok)
	assert.Equal(t, token, session.Token)
	assert.True(t, session.IsAdmin)
	assert.False(t, session.CreatedAt.IsZero())
}

func TestSessionStoreGetMissing(t *testing.T) {
	store := NewMemorySessionStore()
	_, ok := store.Get("0000000000000000000000000000000000000000000000000000000000000000")
	assert.False(t, ok)
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore()

	token, err := store.Create(false)
	require.NoError(t, err)
	store.Delete(token)
	_, ok := store.Get(token)
	assert.False(t, ok)

	// Deleting an unknown token is a no-op.
	store.Delete("never-existed")
}

func TestSessionStoreNoExpiry(t *testing.T) {
	store := NewMemorySessionStore()

	token, err := store.Create(true)
	require.NoError(t, err)

	// Sessions stay valid until deleted; there is no TTL sweep.
	_, ok := store.Get(token)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestSessionTokensPairwiseDistinct(t *testing.T) {
	store := NewMemorySessionStore()

	const n = 100_000
	for i := 0; i < n; i++ {
		token, err := store.Create(false)
		require.NoError(t, err)
		if len(token) != 64 {
			t.Fatalf("token %d has length %d, want 64", i, len(token))
		}
	}
	// The store indexes by token, so n live entries proves pairwise
	// distinctness.
	assert.Equal(t, n, store.Len())
}

func TestSessionStoreConcurrentCreate(t *testing.T) {
	store := NewMemorySessionStore()

	const workers = 64
	const perWorker = 50

	tokens := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				token, err := store.Create(j%2 == 0)
				assert.NoError(t, err)
				tokens <- token
			}
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[string]struct{}, workers*perWorker)
	for token := range tokens {
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token issued under concurrency: %s", token)
		}
		seen[token] = struct{}{}

		// Every issued token must be independently retrievable.
		_, ok := store.Get(token)
		assert.True(t, ok)
	}
	assert.Equal(t, workers*perWorker, store.Len())
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomBytesLength(t *testing.T) {
	b, err := RandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, b, 32)
}

func TestSessionTokenShape(t *testing.T) {
	tok, err := SessionToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", tok)
}

func TestSessionTokenDistinct(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		tok, err := SessionToken()
		require.NoError(t, err)
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}

package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretEqualOnlyExactMatch(t *testing.T) {
	secret := "hunter2-hunter2"
	a := newTestAPI(t, Config{AdminPassword: secret})

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"exact match", secret, true},
		{"one-char prefix match", "h" + strings.Repeat("z", len(secret)-1), false},
		{"completely different, same length", strings.Repeat("q", len(secret)), false},
		{"shorter", secret[:3], false},
		{"longer", secret + "x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.secretEqual([]byte(tt.candidate)))
		})
	}
}

func TestSecretEqualIsRepeatable(t *testing.T) {
	a := newTestAPI(t, Config{AdminPassword: "repeat-me"})

	// The enclave is reopened per comparison; repeated checks must keep
	// working.
	for i := 0; i < 100; i++ {
		assert.True(t, a.secretEqual([]byte("repeat-me")))
		assert.False(t, a.secretEqual([]byte("not-it")))
	}
}

func TestRequireAdmin(t *testing.T) {
	a := newTestAPI(t, Config{AdminPassword: "admin-secret"})

	assert.True(t, a.requireAdmin("admin-secret"))
	assert.False(t, a.requireAdmin("admin-secreT"))
	assert.False(t, a.requireAdmin(""))
}

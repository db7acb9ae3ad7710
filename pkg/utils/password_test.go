package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want bool
	}{
		{"ok", "Abcdefg1", true},
		{"no digit no upper", "abcdefgh", false},
		{"too short", "Ab1", false},
		{"no lower", "ABCDEFG1", false},
		{"no upper", "abcdefg1", false},
		{"no digit", "Abcdefgh", false},
		{"long ok", "Sup3rSecretPass", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPassword(tt.pw))
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	h := HashPassword("Abcdefg1")
	require.NotEmpty(t, h)
	require.NotEqual(t, "Abcdefg1", h)

	assert.True(t, CheckPassword("Abcdefg1", h))
	assert.False(t, CheckPassword("abcdefg1", h))
	assert.False(t, CheckPassword("", h))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}

func TestNewNonce(t *testing.T) {
	a, b := NewNonce(), NewNonce()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

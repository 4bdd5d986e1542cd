package cryptoutil

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomHex(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}$`)

	seen := map[string]bool{}
	for range 32 {
		s, err := RandomHex(4)
		require.NoError(t, err)
		assert.Regexp(t, re, s)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestRandomBytes(t *testing.T) {
	b, err := RandomBytes(16)
	require.NoError(t, err)
	assert.Len(t, b, 16)
}

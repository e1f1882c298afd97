package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-blog/internal/util/password"
)

func TestHasher(t *testing.T) {
	t.Parallel()

	h := password.Hasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, "secret", hash)
	assert.True(t, password.Check(hash, "secret"))
	assert.False(t, password.Check(hash, "Secret"))
	assert.False(t, password.Check("not-a-hash", "secret"))
}

func TestHasher_Salted(t *testing.T) {
	t.Parallel()

	h := password.Hasher{Cost: bcrypt.MinCost}

	first, err := h.Hash("secret")
	require.NoError(t, err)

	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_InvalidCost(t *testing.T) {
	t.Parallel()

	_, err := password.Hasher{Cost: bcrypt.MaxCost + 1}.Hash("secret")
	require.Error(t, err)
}

func TestHasher_MaxLength(t *testing.T) {
	t.Parallel()

	h := password.Hasher{Cost: bcrypt.MinCost}

	_, err := h.Hash(strings.Repeat("x", password.MaxLength))
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("x", password.MaxLength+1))
	require.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("Temp-Pass-2024")
	require.NoError(t, err)
	assert.NotEqual(t, "Temp-Pass-2024", hashed)

	assert.NoError(t, h.Compare(hashed, "Temp-Pass-2024"))
	assert.ErrorIs(t, h.Compare(hashed, "wrong-password"), ErrPasswordMismatch)
}

func TestBcryptHasherRejectsShortPasswords(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

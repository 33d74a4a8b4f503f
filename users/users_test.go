package users

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123", 4)
	require.NoError(t, err)
	require.NotEqual(t, "secret123", hash)

	require.True(t, CheckPasswordHash("secret123", hash))
	require.False(t, CheckPasswordHash("secret124", hash))
}

func TestValidGroup(t *testing.T) {
	require.True(t, ValidGroup(GroupAdmin))
	require.True(t, ValidGroup(GroupCustomer))
	require.False(t, ValidGroup(2))
	require.False(t, ValidGroup(-1))
}

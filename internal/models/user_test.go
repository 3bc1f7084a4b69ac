package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestUserJSONHidesPassword(t *testing.T) {
	raw, err := json.Marshal(User{Email: "grandma@example.com", Password: "hashed-secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hashed-secret")
}

func TestUserToResponse(t *testing.T) {
	user := User{ID: 7, Name: "Rose", Email: "rose@example.com"}
	resp := user.ToResponse()
	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, "Rose", resp.Name)
	assert.Equal(t, "rose@example.com", resp.Email)
}

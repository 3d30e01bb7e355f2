package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerify_Roundtrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()

	token, err := manager.Generate(userID)
	require.NoError(t, err)

	got, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).Generate(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	_, err := manager.Verify("not.a.token")
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	token, err := manager.Generate(uuid.New())
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.Error(t, err)
}

func TestExpiry(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate(uuid.New())
	require.NoError(t, err)

	exp, err := manager.Expiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestExtractTokenFromHeader(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := ExtractTokenFromHeader(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	r.Header.Set("Authorization", "abc.def.ghi")
	_, err = ExtractTokenFromHeader(r)
	assert.Error(t, err)
}

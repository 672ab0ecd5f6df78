package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/oficios-mz/backend/internal/models"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestTokenManager_ParseAccess(t *testing.T) {
	manager := NewTokenManager("secreto-de-test")
	userID := uuid.New()

	signed := signToken(t, "secreto-de-test", jwt.MapClaims{
		"sub":  userID.String(),
		"role": models.RoleWorker,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	parsedID, role, err := manager.ParseAccess(signed)

	assert.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, models.RoleWorker, role)
}

func TestTokenManager_ParseAccess_WrongSecret(t *testing.T) {
	manager := NewTokenManager("secreto-de-test")

	signed := signToken(t, "otro-secreto", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, _, err := manager.ParseAccess(signed)

	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_Expired(t *testing.T) {
	manager := NewTokenManager("secreto-de-test")

	signed := signToken(t, "secreto-de-test", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, _, err := manager.ParseAccess(signed)

	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_NonUUIDSubject(t *testing.T) {
	manager := NewTokenManager("secreto-de-test")

	signed := signToken(t, "secreto-de-test", jwt.MapClaims{
		"sub": "usuario-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, _, err := manager.ParseAccess(signed)

	assert.Error(t, err)
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerTokenRoundTrip(t *testing.T) {
	svc := NewAuthService()

	token, err := svc.IssuePlayerToken("A")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidatePlayerToken(token)
	require.NoError(t, err)
	assert.Equal(t, "A", claims.Name)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateGarbageToken(t *testing.T) {
	svc := NewAuthService()
	_, err := svc.ValidatePlayerToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTamperedToken(t *testing.T) {
	svc := NewAuthService()
	token, err := svc.IssuePlayerToken("A")
	require.NoError(t, err)

	_, err = svc.ValidatePlayerToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

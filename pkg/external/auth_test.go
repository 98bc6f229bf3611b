package external

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestStaticIdentityVerifierAcceptsCorrectPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	v := NewStaticIdentityVerifier()
	v.AddUser("alice", "analyst-1", string(hash), []string{"analyst"})

	id, err := v.Verify(context.Background(), "alice", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, "analyst-1", id.AnalystID)
	assert.Equal(t, []string{"analyst"}, id.Roles)
}

func TestStaticIdentityVerifierRejectsWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	v := NewStaticIdentityVerifier()
	v.AddUser("alice", "analyst-1", string(hash), nil)

	_, err = v.Verify(context.Background(), "alice", "wrong")
	assert.Error(t, err)
}

func TestStaticIdentityVerifierRejectsUnknownUser(t *testing.T) {
	v := NewStaticIdentityVerifier()
	_, err := v.Verify(context.Background(), "nobody", "whatever")
	assert.Error(t, err)
}

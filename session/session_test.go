package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taquilla-cli/model"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func isolate(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, jwt.MapClaims{"id": 17, "username": "ana", "exp": exp.Unix()})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "17", claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))

	_, err = ParseClaims("not-a-token")
	assert.Error(t, err)
}

func TestFileProvider_UsesClaimsForMissingUserID(t *testing.T) {
	isolate(t)
	p := NewFileProvider()

	_, ok := p.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, p.AuthToken())

	token := signed(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, p.Save(model.LoginResponse{Success: true, Token: token}))

	user, ok := p.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, token, p.AuthToken())

	require.NoError(t, p.Clear())
	_, ok = p.CurrentUser()
	assert.False(t, ok)
}

func TestFileProvider_ExpiredTokenIsIgnored(t *testing.T) {
	isolate(t)
	p := NewFileProvider()

	token := signed(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, p.Save(model.LoginResponse{Token: token, User: model.User{ID: "42"}}))

	_, ok := p.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, p.AuthToken())
}

func TestFileProvider_OpaqueTokenKeepsSavedUser(t *testing.T) {
	isolate(t)
	p := NewFileProvider()

	require.NoError(t, p.Save(model.LoginResponse{Token: "opaque", User: model.User{ID: "5", Username: "luis"}}))
	user, ok := p.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "luis", user.Username)
	assert.Equal(t, "opaque", p.AuthToken())
}

func TestMemory(t *testing.T) {
	_, ok := Memory{}.CurrentUser()
	assert.False(t, ok)
	user, ok := Memory{User: model.User{ID: "1"}, Token: "t"}.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "1", user.ID)
}

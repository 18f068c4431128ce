package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	ops, err := NewOperatorDirectory([]Operator{
		{Username: "admin", PasswordHash: mustHash(t, "pw"), Roles: []string{"ADMIN"}},
	})
	require.NoError(t, err)
	return NewResolver(ops, NewTokenVerifier([]byte("secret")))
}

func TestResolver_Basic(t *testing.T) {
	r := newTestResolver(t)

	p, err := r.Resolve(common.BasicAuthorization("admin", "pw"))
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Name)
	assert.True(t, p.HasAny([]authz.Role{authz.RoleAdmin}))

	_, err = r.Resolve(common.BasicAuthorization("admin", "nope"))
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestResolver_Bearer(t *testing.T) {
	r := newTestResolver(t)

	tok := signToken(t, jwt.SigningMethodHS256, []byte("secret"), "bob", []string{"USER"}, time.Now().Add(time.Hour))
	p, err := r.Resolve("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Name)

	expired := signToken(t, jwt.SigningMethodHS256, []byte("secret"), "bob", nil, time.Now().Add(-time.Hour))
	_, err = r.Resolve("bearer " + expired)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestResolver_Malformed(t *testing.T) {
	r := newTestResolver(t)

	for _, h := range []string{"", "Basic", "Basic !!!", "Basic " + "bm9jb2xvbg==", "Digest abc"} {
		_, err := r.Resolve(h)
		assert.ErrorIs(t, err, common.ErrorUnauthenticated, "header %q", h)
	}
}

func TestResolver_DisabledSources(t *testing.T) {
	r := NewResolver(nil, nil)

	_, err := r.Resolve(common.BasicAuthorization("admin", "pw"))
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	_, err = r.Resolve("Bearer abc")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
}

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptoken/internal/callerauth/token"
	"proptoken/pkg/domain"
)

func TestIdentity(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"identity"}, &out))

	_, err := domain.ParseIdentity(strings.TrimSpace(out.String()))
	assert.NoError(t, err)
}

func TestIssue(t *testing.T) {
	key := strings.Repeat("s", 32)
	t.Setenv("JWT_SIGNING_KEY", key)
	t.Setenv("JWT_ISSUER", "tokenctl-test")
	caller := "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"

	var out bytes.Buffer
	require.NoError(t, run([]string{"issue", "-identity", caller, "-ttl", "5m"}, &out))

	claims, err := token.NewService(key, "tokenctl-test").Validate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	got, err := claims.Caller()
	require.NoError(t, err)
	assert.Equal(t, domain.MustParseIdentity(caller), got)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestRun_Rejects(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", strings.Repeat("s", 32))

	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"bogus"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"issue", "-identity", "nope"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"issue", "-identity", "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48", "-ttl", "0s"}, &bytes.Buffer{}))
}

func TestIssue_TTLCappedByServerTokenTTL(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", strings.Repeat("s", 32))
	t.Setenv("TOKEN_TTL", "30m")
	caller := "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"

	err := run([]string{"issue", "-identity", caller, "-ttl", "2h"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds TOKEN_TTL")

	assert.NoError(t, run([]string{"issue", "-identity", caller, "-ttl", "30m"}, &bytes.Buffer{}))
}

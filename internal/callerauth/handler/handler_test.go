package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptoken/internal/callerauth/revocation"
	"proptoken/internal/callerauth/token"
	"proptoken/internal/platform/logger"
	"proptoken/internal/platform/middleware"
	"proptoken/pkg/domain"
	"proptoken/pkg/platform/audit"
	"proptoken/pkg/platform/audit/store/memory"
	"proptoken/pkg/testutil"
)

func TestRevokeOwnToken(t *testing.T) {
	tokens := token.NewService("revoke-test-signing-key-0123456789", "proptoken-test")
	revocations := revocation.NewInMemory()
	auditStore := memory.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore)
	log := logger.Discard()

	r := chi.NewRouter()
	requireCaller := middleware.RequireCaller(tokens, revocations, log)
	New(revocations, time.Hour, publisher, log).Register(r, requireCaller)
	r.With(requireCaller).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	caller := domain.MustParseIdentity("8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")
	signed, jti, err := tokens.Issue(caller, time.Hour)
	require.NoError(t, err)

	testutil.Given(t, "a valid caller token", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/ping", nil), signed))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		testutil.When(t, "the caller revokes it", func(t *testing.T) {
			rr := testutil.DoRequest(r, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/tokens/revoke", nil), signed))
			testutil.AssertStatus(t, rr, http.StatusNoContent)

			testutil.Then(t, "the token is rejected afterwards", func(t *testing.T) {
				revoked, err := revocations.IsRevoked(context.Background(), jti)
				require.NoError(t, err)
				assert.True(t, revoked)

				rr := testutil.DoRequest(r, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/ping", nil), signed))
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})

			testutil.Then(t, "a security audit event is recorded", func(t *testing.T) {
				events, err := publisher.List(context.Background(), caller.String())
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, string(audit.EventCallerTokenRevoked), events[0].Action)
				assert.Equal(t, audit.CategorySecurity, events[0].Category)
			})
		})
	})
}

func TestRevokeOutlivesServerTokenTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tokens := token.NewService("revoke-test-signing-key-0123456789", "proptoken-test", token.WithClock(clock))
	revocations := revocation.NewInMemory(revocation.WithClock(clock))
	log := logger.Discard()

	r := chi.NewRouter()
	requireCaller := middleware.RequireCaller(tokens, revocations, log)
	New(revocations, time.Hour, nil, log, WithClock(clock)).Register(r, requireCaller)
	r.With(requireCaller).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	caller := domain.MustParseIdentity("8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")
	signed, jti, err := tokens.Issue(caller, 2*time.Hour)
	require.NoError(t, err)

	testutil.Given(t, "a token issued for longer than the server token ttl", func(t *testing.T) {
		testutil.When(t, "it is revoked", func(t *testing.T) {
			rr := testutil.DoRequest(r, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/tokens/revoke", nil), signed))
			testutil.AssertStatus(t, rr, http.StatusNoContent)

			testutil.Then(t, "it stays rejected after the server token ttl has passed", func(t *testing.T) {
				now = now.Add(90 * time.Minute)

				_, err := tokens.Validate(signed)
				require.NoError(t, err, "token itself has not expired yet")
				revoked, err := revocations.IsRevoked(context.Background(), jti)
				require.NoError(t, err)
				assert.True(t, revoked)

				rr := testutil.DoRequest(r, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/ping", nil), signed))
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})

			testutil.Then(t, "the entry lapses once the token itself has expired", func(t *testing.T) {
				now = now.Add(time.Hour)

				revoked, err := revocations.IsRevoked(context.Background(), jti)
				require.NoError(t, err)
				assert.False(t, revoked)
				_, err = tokens.Validate(signed)
				assert.Error(t, err)
			})
		})
	})
}

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/internal/storage"
	"manifestgate/pkg/requestcontext"
)

var signingKey = []byte("test-signing-key")

func newLedger() *audit.Ledger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return audit.NewLedger(storage.NewInMemoryAuditStore(), storage.NewInMemoryUserStore(), log, nil)
}

func signToken(t *testing.T, key []byte, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func officerClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "officer-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:     "officer@ferryline.example",
		FirstName: "Anna",
		LastName:  "Berg",
		Roles:     []string{"compliance-officer"},
	}
}

func TestMetadataCapturesRequestContext(t *testing.T) {
	var got struct {
		ip        string
		userAgent string
		requestID string
	}
	handler := Metadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		got.ip = requestcontext.ClientIP(ctx)
		got.userAgent = requestcontext.UserAgent(ctx)
		got.requestID = requestcontext.RequestID(ctx)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "manifestgate-test/1.0")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "203.0.113.9", got.ip)
	assert.Equal(t, "manifestgate-test/1.0", got.userAgent)
	assert.NotEmpty(t, got.requestID)
	assert.Equal(t, got.requestID, rec.Header().Get("X-Request-Id"))
}

func TestMetadataEchoesProvidedRequestID(t *testing.T) {
	handler := Metadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestRequireAuthInstallsPrincipal(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	var principal domain.Principal
	handler := RequireAuth(signingKey, newLedger(), log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = requestcontext.Principal(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, signingKey, officerClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "officer-7", principal.Subject)
	assert.Equal(t, "officer@ferryline.example", principal.Email)
	assert.Equal(t, []string{"compliance-officer"}, principal.Roles)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	handler := RequireAuth(signingKey, newLedger(), log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestRequireAuthRejectsBadSignature(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	handler := RequireAuth(signingKey, newLedger(), log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("wrong-key"), officerClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	handler := RequireAuth(signingKey, newLedger(), log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	claims := officerClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, signingKey, claims))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("compliance-officer")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allows matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := requestcontext.WithPrincipal(req.Context(), domain.Principal{
			Subject: "officer-7",
			Roles:   []string{"deckhand", "compliance-officer"},
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbids missing role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := requestcontext.WithPrincipal(req.Context(), domain.Principal{
			Subject: "deckhand-3",
			Roles:   []string{"deckhand"},
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

// Package middleware holds the HTTP edge: request metadata capture and JWT
// authentication.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"manifestgate/internal/audit"
	"manifestgate/internal/domain"
	"manifestgate/pkg/requestcontext"
)

// Claims is the token shape issued by the operator's identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Email     string   `json:"email"`
	FirstName string   `json:"given_name"`
	LastName  string   `json:"family_name"`
	Roles     []string `json:"roles"`
}

// Metadata records the caller's network address, user agent, and correlation
// id on the request context before anything else runs.
func Metadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, clientIP(r))
		ctx = requestcontext.WithUserAgent(ctx, r.UserAgent())

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth validates the bearer token and installs the principal. Failed
// attempts are logged and written to the ledger; the ledger write must never
// delay the 401.
func RequireAuth(signingKey []byte, ledger *audit.Ledger, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil || !parsed.Valid {
				log.WithError(err).WithFields(logrus.Fields{
					"request_id": requestcontext.RequestID(ctx),
					"client_ip":  requestcontext.ClientIP(ctx),
				}).Warn("rejected invalid token")

				go ledger.Log(context.WithoutCancel(ctx), audit.Entry{
					EntityType: domain.EntityUser,
					EntityID:   "anonymous",
					Action:     domain.ActionAuthFailed,
					Reason:     "invalid or expired bearer token",
				})

				unauthorized(w, "invalid or expired token")
				return
			}

			principal := domain.Principal{
				Subject:   claims.Subject,
				Email:     claims.Email,
				FirstName: claims.FirstName,
				LastName:  claims.LastName,
				Roles:     claims.Roles,
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

// RequireRole gates a route group on one of the principal's roles.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := requestcontext.Principal(r.Context())
			for _, have := range principal.Roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintf(w, `{"error":"forbidden","error_description":"role %s required"}`, role)
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}

// clientIP prefers the forwarding headers a fronting proxy sets and falls
// back to the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

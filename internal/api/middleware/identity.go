package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type actorKey struct{}

// Claims is the identity token issued by the auth collaborator.
type Claims struct {
	CompanyID string     `json:"company_id"`
	Role      model.Role `json:"role"`
	jwt.RegisteredClaims
}

func parseJwt(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" || claims.CompanyID == "" {
		return nil, errors.New("token is missing subject or company")
	}
	if uuid.Validate(claims.Subject) != nil || uuid.Validate(claims.CompanyID) != nil {
		return nil, errors.New("token subject and company must be UUIDs")
	}
	switch claims.Role {
	case model.RoleEmployee, model.RoleAdmin:
	default:
		return nil, errors.New("token carries an unknown role")
	}
	return claims, nil
}

// Authenticate checks the Bearer token and puts the caller into the request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parseJwt(parts[1], secret)
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			actor := core.Actor{EmployeeID: claims.Subject, CompanyID: claims.CompanyID, Role: claims.Role}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("app.employeeId", actor.EmployeeID))

			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			ctx = logger.EnrichContextWithLogger(ctx, "employee_id", actor.EmployeeID, "company_id", actor.CompanyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose token does not carry the ADMIN role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.Role != model.RoleAdmin {
			deny(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFromContext returns the caller set by Authenticate.
func ActorFromContext(ctx context.Context) (core.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(core.Actor)
	return actor, ok
}

// IssueToken signs an HS256 identity token.
func IssueToken(secret []byte, actor core.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: actor.CompanyID,
		Role:      actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated user of a request, as recorded in the token
type Caller struct {
	UserID  primitive.ObjectID
	Role    models.Role
	IsAdmin bool
}

type callerKey struct{}

// GetCallerFromContext returns the caller stored by Auth or OptionalAuth
func GetCallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

func withCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "Missing authorization header"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Authorization header format must be Bearer {token}"
	}
	return parts[1], ""
}

func (a *API) callerFromToken(token string) (Caller, bool) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return Caller{}, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Caller{}, false
	}
	return Caller{UserID: id, Role: models.Role(claims.Role), IsAdmin: claims.IsAdmin}, true
}

// Auth rejects requests without a valid bearer token
func (a *API) Auth(next http.Handler) http.Handler {
	return a.authenticate(false, next)
}

// StreamAuth is Auth that also accepts ?token=, since EventSource cannot set headers
func (a *API) StreamAuth(next http.Handler) http.Handler {
	return a.authenticate(true, next)
}

func (a *API) authenticate(allowQuery bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, problem := bearerToken(r)
		if token == "" && allowQuery {
			if q := r.URL.Query().Get("token"); q != "" {
				token, problem = q, ""
			}
		}
		if token == "" {
			utils.RespondError(w, nil, problem, http.StatusUnauthorized)
			return
		}

		caller, ok := a.callerFromToken(token)
		if !ok {
			utils.RespondError(w, nil, "Not authorized or invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through otherwise
func (a *API) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, _ := bearerToken(r); token != "" {
			if caller, ok := a.callerFromToken(token); ok {
				r = r.WithContext(withCaller(r.Context(), caller))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Auth
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := GetCallerFromContext(r.Context())
		if !ok {
			utils.RespondError(w, nil, "Not authorized or invalid token", http.StatusUnauthorized)
			return
		}
		if !caller.IsAdmin {
			utils.RespondError(w, nil, "Access denied: admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

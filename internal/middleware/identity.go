package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type userIDKeyType string

const userIDKey userIDKeyType = "userId"

// RequireUser reads the caller's identity from the X-User-ID header and puts
// it on the request context. Requests without the header are rejected; every
// repository query below this point is scoped by that id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"code":    "UNAUTHENTICATED",
					"message": "Missing X-User-ID header",
				},
				"correlationId": GetCorrelationID(r.Context()),
			})
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

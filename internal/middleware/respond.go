package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"

	"fitness-tracker/internal/model"
)

// writeEnvelope writes a failure in the same envelope handlers use.
func writeEnvelope(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failure(code, message))
}

func failure(code string, message string) model.APIResponse {
	return model.APIResponse{Error: &model.APIError{Code: code, Message: message}}
}

// CORS allows browser clients on origins to send bearer tokens. Cookies are never used.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         int((time.Hour).Seconds()),
	}).Handler
}

// Timeout bounds handler time with a 503 envelope. Store calls carry their own shorter deadline.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(failure("REQUEST_TIMEOUT", "request timed out"))

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}

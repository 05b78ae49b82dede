package agent

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Middleware parses the Commerce-Agent header and stores the agent in the
// request context for handlers.
//
// The header is optional. A request that sends a malformed header is rejected
// with 400 Bad Request rather than treated as anonymous.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(HeaderName)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			a, err := ParseHeader(header)
			if err != nil {
				logger.Warn("invalid Commerce-Agent header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeAgentError(w, "Invalid Commerce-Agent header: "+err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAgent(r.Context(), a)))
		})
	}
}

// writeAgentError writes the standard {"error": message} envelope.
func writeAgentError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

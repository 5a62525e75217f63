package app

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", zap.Error(err))
	}
}

// writeText sends a plain text body, as the API does for status messages.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// dateParam reads ?date=YYYY-MM-DD in the server's zone, defaulting to now.
func (s *Server) dateParam(r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return s.now(), true
	}
	t, err := time.ParseInLocation(program.DateLayout, v, s.now().Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WithCORS allows the configured client origin to call the API with
// credentials. Preflight requests are answered directly.
func WithCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

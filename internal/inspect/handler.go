package inspect

import (
	"encoding/json"
	"net/http"
	"time"

	"fjacquet/merchant-resolver/internal/logging"
)

// MaxLines bounds a single debug request.
const MaxLines = 500

type parseRequest struct {
	Lines []string `json:"lines"`
}

type parseResponse struct {
	Results []Report `json:"results"`
	Count   int      `json:"count"`
}

// NewHandler serves POST /debug/parse and GET /health.
func NewHandler(ins *Inspector, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req parseRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(req.Lines) == 0 {
			WriteError(w, http.StatusBadRequest, "lines is required")
			return
		}
		if len(req.Lines) > MaxLines {
			WriteError(w, http.StatusRequestEntityTooLarge, "Too many lines")
			return
		}
		results := ins.Inspect(r.Context(), req.Lines)
		WriteJSON(w, http.StatusOK, parseResponse{Results: results, Count: len(results)})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return Recovery(logger)(RequestLogger(logger)(mux))
}

// RequestLogger logs every request at Debug.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Debug("HTTP request",
				logging.F("method", r.Method),
				logging.F("path", r.URL.Path),
				logging.F("status", wrapped.statusCode),
				logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		})
	}
}

// Recovery turns a panic into a 500 response.
func Recovery(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						logging.F(logging.FieldError, err),
						logging.F("path", r.URL.Path))
					WriteError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

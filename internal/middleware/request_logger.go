package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"pet-health-records/internal/platform/logger"
)

// RequestLogger deja en el contexto un logger con request_id (de chi RequestID)
// e instala en chi un LogEntry que escribe la línea de acceso y los panics
// (los reporta chimw.Recoverer) en ese mismo logger.
func RequestLogger(base logger.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = logger.Nop()
	}
	access := chimw.RequestLogger(logFormatter{})

	return func(next http.Handler) http.Handler {
		logged := access(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(map[string]any{"request_id": chimw.GetReqID(r.Context())})
			logged.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
		})
	}
}

type logFormatter struct{}

func (logFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &logEntry{
		l:      logger.FromContext(r.Context()),
		method: r.Method,
		path:   r.URL.Path,
	}
}

type logEntry struct {
	l      logger.Logger
	method string
	path   string
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	fields := map[string]any{
		"method":      e.method,
		"path":        e.path,
		"status":      status,
		"bytes":       bytes,
		"duration_ms": elapsed.Milliseconds(),
	}
	if status >= 500 {
		e.l.Warn("http request", fields)
		return
	}
	e.l.Info("http request", fields)
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.l.Error("panic recovered", map[string]any{
		"panic": fmt.Sprint(v),
		"stack": string(stack),
	})
}

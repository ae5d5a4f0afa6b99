package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Log attaches a log_id to the request context logger and logs each request once it is served.
func Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			start = time.Now()
			logID = uuid.New().String()
			ctx   = log.Ctx(r.Context()).With().Str("log_id", logID).Logger().WithContext(r.Context())
			rec   = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		)

		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Ctx(ctx).Info().Msgf("%s %s, status: %d, proctm: %vms", r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds())
	})
}

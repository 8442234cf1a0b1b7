package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pagefuse/pagefuse/idgen"
	"github.com/pagefuse/pagefuse/kit"
)

var requestIDGen = idgen.NanoID(8)

// RequestID tags each request with a short random ID and injects it into the
// context, the response headers, and a per-request structured logger stored
// under LoggerKey.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestIDGen()

		ctx := kit.WithRequestID(r.Context(), id)
		ctx = kit.WithRemoteAddr(ctx, ExtractIP(r))
		w.Header().Set("X-Request-ID", id)

		logger := slog.Default().With(
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

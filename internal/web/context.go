package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/payables/internal/core"
)

// WithRequestMetadata copies client IP, User-Agent and request ID into ctx
// so ledger events can carry them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // already rewritten by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	if id := middleware.GetReqID(r.Context()); id != "" {
		ctx = core.ContextWithRequestID(ctx, id)
	}
	return ctx
}

package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "user_agent"
	ctxKeyRequestID contextKey = "request_id"
)

// ContextWithIPAddress records the client IP for event metadata.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent records the client User-Agent for event metadata.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ContextWithRequestID records the transport request ID for event metadata.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// requestMeta collects whatever request metadata the caller attached.
func requestMeta(ctx context.Context) map[string]string {
	var meta map[string]string
	for _, key := range []contextKey{ctxKeyIPAddress, ctxKeyUserAgent, ctxKeyRequestID} {
		if v := stringValue(ctx, key); v != "" {
			if meta == nil {
				meta = make(map[string]string, 3)
			}
			meta[string(key)] = v
		}
	}
	return meta
}

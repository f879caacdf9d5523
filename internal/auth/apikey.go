package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ModeAPIKey enables key checks. Any other mode disables them.
const ModeAPIKey = "apikey"

// Guard enforces a shared API key read from a named header.
type Guard struct {
	mode   string
	header string
	key    string
}

// NewGuard returns a Guard. header is matched case-insensitively.
func NewGuard(mode, header, key string) *Guard {
	return &Guard{mode: mode, header: strings.ToLower(header), key: key}
}

// Enabled reports whether requests must carry the key.
func (g *Guard) Enabled() bool {
	return g != nil && g.mode == ModeAPIKey && g.key != ""
}

func (g *Guard) matches(presented string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(g.key)) == 1
}

// Middleware rejects requests without the key with 401.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Enabled() && !g.matches(r.Header.Get(g.header)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid api key"}` + "\n")) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UnaryInterceptor returns a gRPC interceptor that reads the key from the
// incoming metadata and fails with codes.Unauthenticated when it is missing
// or wrong.
func (g *Guard) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !g.Enabled() {
			return handler(ctx, req)
		}
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		vals := md.Get(g.header)
		if len(vals) == 0 || !g.matches(vals[0]) {
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}
		return handler(ctx, req)
	}
}

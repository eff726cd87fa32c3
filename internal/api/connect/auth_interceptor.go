package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

const (
	// ControlTokenHeader is the header name for the control token.
	ControlTokenHeader = "X-Control-Token"
)

var (
	errMissingToken  = errors.New("missing control token")
	errInvalidToken  = errors.New("invalid control token")
	errAdminDisabled = errors.New("admin service is disabled")
)

// NewControlTokenInterceptor creates an interceptor that validates the control
// token from request metadata. An empty token rejects every call.
func NewControlTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token == "" {
				return nil, connect.NewError(connect.CodePermissionDenied, errAdminDisabled)
			}

			// Extract token from metadata
			got := req.Header().Get(ControlTokenHeader)
			if got == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errMissingToken)
			}

			// Validate token
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
			}

			return next(ctx, req)
		}
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/cashvault-backend/pkg/logger"
)

type contextKey string

const ctxOperatorID contextKey = "operator_id"

// OperatorHeader carries the operator identity asserted by the gateway.
const OperatorHeader = "X-Operator-Id"

func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

// WithOperatorID injects the operator identifier into the context.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperatorID, operatorID)
}

// Operator copies the X-Operator-Id header into the request context and
// the log fields. Requests without the header pass through anonymously.
func Operator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operatorID := strings.TrimSpace(r.Header.Get(OperatorHeader))
			if operatorID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithOperatorID(r.Context(), operatorID)
			if logg != nil {
				ctx = logg.WithOperatorID(ctx, operatorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

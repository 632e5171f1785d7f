package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// accessTokenMiddleware verifies the Bearer access token and stores the
// parsed claims in the request context.
func (s *HTTPServer) accessTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthHeaderName)
		if header == "" {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		token, ok := strings.CutPrefix(header, common.AuthScheme+" ")
		if !ok || token == "" {
			writeError(w, common.ErrInvalidToken)
			return
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext returns the verified claims stored by the middleware.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

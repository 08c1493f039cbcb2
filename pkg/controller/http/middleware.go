package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
	"github.com/secmon-lab/wrongbook/pkg/utils/errutil"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

var errAuthenticationRequired = errors.New("authentication failed")

// identityMiddleware resolves the caller's identity from the Authorization
// header. Requests without the header are anonymous.
func identityMiddleware(verifier usecase.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				ctx := model.ContextWithIdentity(r.Context(), model.Anonymous{})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				errutil.HandleHTTP(r.Context(), w, goerr.New("authorization header must be a bearer token"), http.StatusUnauthorized)
				return
			}

			if verifier == nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(errAuthenticationRequired, "identity verification is not configured"), http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, goerr.Wrap(errors.Join(errAuthenticationRequired, err), "invalid identity token"), http.StatusUnauthorized)
				return
			}

			ctx := model.ContextWithIdentity(r.Context(), identity)
			ctx = logging.With(ctx, logging.From(ctx).With("identity", identity.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"net/http"

	"roomly/pkg/auth"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// TokenParser turns a bearer token into the caller's identity.
type TokenParser interface {
	Parse(token string) (*auth.Principal, error)
}

// Authenticator guards individual routes. It is applied per route rather
// than on the whole router so health and login stay public.
type Authenticator struct {
	tokens TokenParser
	log    *logger.Logger
}

func NewAuthenticator(tokens TokenParser, log *logger.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, log: log}
}

func (a *Authenticator) Authenticated(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearerToken(r)
		if token == "" {
			a.reject(w, r, apperrors.Unauthorized("Missing bearer token"))
			return
		}

		principal, err := a.tokens.Parse(token)
		if err != nil {
			a.log.Warn("Rejected access token",
				"request_id", RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			a.reject(w, r, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)), ps)
	}
}

func (a *Authenticator) Admin(next httprouter.Handle) httprouter.Handle {
	return a.Authenticated(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		if !principal.IsAdmin() {
			a.reject(w, r, apperrors.Forbidden("Admin role required"))
			return
		}
		next(w, r, ps)
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err *apperrors.AppError) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		a.log.Error("failed to write error response", "handler", "Authenticator", "operation", "WriteError", "path", r.URL.Path, "error", writeErr)
	}
}

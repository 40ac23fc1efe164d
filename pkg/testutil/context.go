package testutil

import (
	"net/http"

	"proptoken/pkg/domain"
	"proptoken/pkg/requestcontext"
)

// WithCaller puts caller into the request context, as RequireCaller would
// after validating a token.
func WithCaller(req *http.Request, caller domain.Identity) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

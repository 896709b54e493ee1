package testutil

import (
	"net/http"

	"datagate/pkg/requestcontext"
)

// WithCaller sets the caller address the auth middleware would have injected.
func WithCaller(req *http.Request, address string) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), address))
}

// WithBearer sets the Authorization header to a bearer token.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

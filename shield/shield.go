// Package shield provides reusable HTTP hardening middleware for the medqc
// service: security headers, request body limits and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack(maxBody) {
//		r.Use(mw)
//	}
package shield

import "net/http"

// APIStack returns the standard middleware stack for the JSON API.
// Ordered: HeadToGet → SecurityHeaders → MaxBody.
func APIStack(maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
	}
}

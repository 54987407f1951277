package middleware

import "net/http"

// Chain applies middleware in order (first to last): the first one listed
// sees the request first.
//
// Example:
//
//	handler := Chain(mux,
//	    RequestID,               // Executes first
//	    RequestLogging,          // Executes second
//	    Session(auth, users),    // Executes third
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

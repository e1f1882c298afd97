// Package context holds the request-scoped values shared between middleware,
// handlers and log handlers.
package context

type contextKey string

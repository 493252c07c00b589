// Package middleware holds the Echo middleware of the microchip API.
//
// These intercept requests to handle cross-cutting concerns such as
// request ids, request-scoped logging, New Relic tracing, CORS, rate
// limiting and panic recovery, plus the global error handler.
package middleware

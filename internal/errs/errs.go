// Package errs defines the error shapes returned to API clients.
//
// Every failure leaving the HTTP layer is an *HTTPError, either created
// directly by a service (domain errors such as a missing microchip) or
// translated by the global error handler from a lower-level error.
package errs

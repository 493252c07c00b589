// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers pass in
// already bound parameters, services apply the microchip rules to the
// collection and hand the result back, or an *errs.HTTPError for domain
// failures.
package service

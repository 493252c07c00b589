// Package validation binds request data and validates it.
//
// Struct tags are enforced by go-playground/validator; failures come back
// as a 400 *errs.HTTPError with one FieldError per offending field.
package validation

// Package handler is the HTTP layer of the microchip API.
//
// Handlers bind and validate requests through the validation package,
// call the service layer and map results onto status codes. Errors are
// returned as-is for the global error handler to render.
package handler

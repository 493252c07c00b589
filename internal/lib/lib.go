// Package lib holds supporting modules that do not belong to a single
// layer, such as the asynq background job service.
package lib

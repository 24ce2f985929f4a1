package service

import "errors"

var (
	ErrValidation     = errors.New("validation")     // 400 / 422
	ErrNotFound       = errors.New("not found")      // 404
	ErrConflict       = errors.New("conflict")       // 409
	ErrUpstream       = errors.New("upstream")       // 502
	ErrConfiguration  = errors.New("configuration")  // startup
	ErrAuthentication = errors.New("authentication") // 400 on webhooks, 401 on sessions
)

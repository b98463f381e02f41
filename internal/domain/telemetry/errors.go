package telemetry

import "errors"

// ErrInvalidInput indicates an unusable history or click request.
var ErrInvalidInput = errors.New("invalid telemetry input")

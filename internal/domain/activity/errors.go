package activity

import "errors"

// ErrInvalidInput indicates an unusable activity entry or query.
var ErrInvalidInput = errors.New("invalid activity input")

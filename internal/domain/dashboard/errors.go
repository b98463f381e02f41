package dashboard

import "errors"

var ErrInvalidInput = errors.New("invalid input")

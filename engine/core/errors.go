package core

import (
	"errors"
)

// Error kinds returned by the texture loaders. Callers match them with
// errors.Is; the wrapped cause is kept alongside.
var (
	ErrIO          = errors.New("i/o error")
	ErrFormat      = errors.New("invalid image format")
	ErrDecoderInit = errors.New("decoder initialization failed")
	ErrAllocation  = errors.New("pixel buffer allocation failed")
)

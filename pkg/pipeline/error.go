package pipeline

import "errors"

// ErrInputAccess is returned when the input document cannot be opened or
// read. It is the only error that aborts a run.
var ErrInputAccess = errors.New("input access failed")

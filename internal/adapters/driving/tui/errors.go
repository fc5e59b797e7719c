package tui

import "errors"

// ErrMissingChangeService is returned when the change service is not provided.
var ErrMissingChangeService = errors.New("tui: change service is required")

// ErrStreamClosed is reported when the progress stream closes before the analysis finishes.
var ErrStreamClosed = errors.New("progress stream closed before the analysis finished")

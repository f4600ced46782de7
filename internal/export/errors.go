package export

import (
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Every error returned by this package wraps exactly one of
// them so callers can classify it with errors.Is.
var (
	ErrServiceUnavailable = errors.New("metadata service unavailable")
	ErrMetadataPopulation = errors.New("metadata population error")
	ErrWriterInit         = errors.New("writer init error")
	ErrPlaneWrite         = errors.New("plane write error")
	ErrClose              = errors.New("close error")
	ErrAlreadyClosed      = errors.New("output already closed")
	ErrDriverFinished     = errors.New("driver already finished")
)

// wrap tags err with marker and the operation that failed
func wrap(marker error, operation string, err error) error {
	if marker == nil {
		marker = ErrPlaneWrite
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "export"
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, operation, err)
	}
	return fmt.Errorf("%w: %s", marker, operation)
}

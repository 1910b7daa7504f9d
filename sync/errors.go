package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed requests, such as a sync
	// with no remote side.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the addressed file or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSourceNotFound indicates the source of a work item vanished.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMissingMetadata indicates an object exists but carries no fingerprint.
	ErrMissingMetadata = errors.New("missing fingerprint metadata")
)

// TransferError reports a failed read or write against S3 or the filesystem.
type TransferError struct {
	Op     string
	Source string
	Target string
	Err    error
}

func (e *TransferError) Error() string {
	switch {
	case e.Source != "" && e.Target != "":
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Source, e.Target, e.Err)
	case e.Target != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
	}
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

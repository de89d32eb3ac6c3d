package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested media item does not exist
	ErrItemNotFound = errors.New("media item not found")

	// ErrNoSession indicates a command was issued with no attached resource
	ErrNoSession = errors.New("no active playback session")

	// ErrSuperseded indicates the session a request was issued against was
	// closed or replaced before the request could run
	ErrSuperseded = errors.New("playback session superseded")

	// ErrClosed indicates the coordinator has shut down
	ErrClosed = errors.New("playback coordinator is shut down")

	// ErrPlayerNotFound indicates no supported media player could be located
	ErrPlayerNotFound = errors.New("no supported media player found")
)

// AcquisitionError reports that a resource could not be opened for an item.
type AcquisitionError struct {
	ItemID string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire %q: %v", e.ItemID, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// CommandError reports that the attached resource rejected a command.
type CommandError struct {
	Op     string
	ItemID string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.ItemID, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

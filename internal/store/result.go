package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage wraps local persistence failures.
	ErrStorage = errors.New("local storage failed")
	// ErrNotSynced is returned for edits of a task the server has never seen.
	ErrNotSynced = errors.New("task exists only locally")
)

// Status says where a write ended up.
type Status int

const (
	// Synced means the server accepted the write and local state holds the server copy.
	Synced Status = iota
	// LocalOnly means the server call failed and local state holds the client copy.
	LocalOnly
	// Superseded means a newer edit of the same task started while this one was in flight,
	// so its response was dropped.
	Superseded
)

func (s Status) String() string {
	switch s {
	case Synced:
		return "synced"
	case LocalOnly:
		return "local-only"
	case Superseded:
		return "superseded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result reports the outcome of a store action. State has already been
// mutated when it is returned; Err explains a LocalOnly status or a failed
// local write.
type Result struct {
	Status Status
	Err    error
}

func (r Result) OK() bool {
	return r.Status != LocalOnly && r.Err == nil
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

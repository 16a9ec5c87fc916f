package data

import (
	"errors"
	"sync"
)

// Standard errors that storage and view implementations should use.
var (
	// Lookup errors
	ErrNotFound = errors.New("nskv: key not found")

	// Namespace errors
	ErrNoNamespace      = errors.New("nskv: no namespace given")
	ErrNamespaceTooLong = errors.New("nskv: namespace exceeds 65535 bytes")
	ErrCorruptKey       = errors.New("nskv: physical key outside of namespace")

	// Access errors
	ErrReadOnly         = errors.New("nskv: read-only storage")
	ErrBorrowed         = errors.New("nskv: storage is borrowed")
	ErrReleased         = errors.New("nskv: view already released")
	ErrRangeUnsupported = errors.New("nskv: storage does not support range iteration")
	ErrClosed           = errors.New("nskv: storage already closed")

	// Address errors
	ErrInvalidAddress  = errors.New("nskv: invalid backend address")
	ErrUnknownProtocol = errors.New("nskv: unknown backend protocol")
)

// Errors collects multiple errors and joins them on demand.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}

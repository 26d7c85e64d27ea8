package data

import (
	"errors"
	"sync"
)

// Standard errors shared by stores, trees and the dispatcher.
var (
	// Path resolution errors
	ErrInvalidPath = errors.New("webdesk: invalid path detected")

	// Record errors
	ErrNotExist = errors.New("webdesk: record does not exist")
	ErrExist    = errors.New("webdesk: record already exists")

	// Tree errors
	ErrIsDirectory       = errors.New("webdesk: is a directory")
	ErrNotDirectory      = errors.New("webdesk: not a directory")
	ErrDirectoryNotEmpty = errors.New("webdesk: directory not empty")
	ErrQuotaExceeded     = errors.New("webdesk: storage quota exceeded")
	ErrPermission        = errors.New("webdesk: permission denied")

	// Session errors
	ErrLockTimeout = errors.New("webdesk: session lock timeout")
	ErrSealed      = errors.New("webdesk: sealed record cannot be opened")

	ErrInvalid = errors.New("webdesk: invalid argument")
)

// Errors collects errors from several independent cleanup steps.
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

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}

// Package common provides shared utilities and types used across the
// ingestion pipeline.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Common pipeline errors.
var (
	// Registry errors.
	ErrPluginNotLoaded = errors.New("plugin not loaded")

	// Matching and routing errors.
	ErrNoMatchingPlugin  = errors.New("no plugin matched statement text")
	ErrUnsupportedSuffix = errors.New("unsupported file suffix")

	// Storage errors.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")

	// Import errors.
	ErrAccountResolutionRequired = errors.New("account resolution required")
	ErrHardFail                  = errors.New("hard fail enabled, aborting batch")
)

// ContractViolationError reports a plugin that fails the metadata contract at
// load time. The offending plugin is skipped; loading of others continues.
type ContractViolationError struct {
	PluginID string
	Missing  []string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("plugin %s violates metadata contract: missing %s",
		e.PluginID, strings.Join(e.Missing, ", "))
}

// ParseError wraps a failure inside an institution-specific parsing
// implementation with the originating plugin id for diagnosis.
type ParseError struct {
	Err      error
	PluginID string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.PluginID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaViolationError reports every invariant a parsed statement violates at
// once, so a mis-parsed statement can be fixed in one pass.
type SchemaViolationError struct {
	Violations []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("statement failed validation:\n  %s",
		strings.Join(e.Violations, "\n  "))
}

// FileMoveError distinguishes a recoverable lock conflict, retryable after
// user action, from an unrecoverable I/O fault.
type FileMoveError struct {
	Err       error
	Path      string
	Retryable bool
}

func (e *FileMoveError) Error() string {
	return fmt.Sprintf("failed to move %s: %v", e.Path, e.Err)
}

func (e *FileMoveError) Unwrap() error {
	return e.Err
}

package cmd

import (
	"errors"
	"fmt"
)

// Command errors.
var (
	// ErrEmptyInput is returned when there is nothing to tokenize.
	ErrEmptyInput = errors.New("cmd: empty input")

	// ErrInvalidDeclaration indicates a malformed command declaration.
	ErrInvalidDeclaration = errors.New("cmd: invalid declaration")

	// ErrInvalidGrammar indicates a usage pattern that does not compile.
	ErrInvalidGrammar = errors.New("cmd: invalid grammar")

	// ErrInstantiation indicates the owner of a bound source could not be built.
	ErrInstantiation = errors.New("cmd: instantiation failed")

	// ErrRegistryFrozen is returned by Register once dispatching has started.
	ErrRegistryFrozen = errors.New("cmd: registry is frozen")

	// ErrUsageMismatch indicates the arguments did not match the usage pattern.
	ErrUsageMismatch = errors.New("cmd: usage mismatch")

	// ErrPermissionDenied indicates the actor lacks the required permission.
	ErrPermissionDenied = errors.New("cmd: permission denied")

	// ErrInvocation indicates the handler failed or panicked.
	ErrInvocation = errors.New("cmd: invocation failed")
)

// SourceError ties a registration failure to the source that caused it.
type SourceError struct {
	Source string
	Alias  string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("source %s: command %q: %v", e.Source, e.Alias, e.Err)
	}
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// UsageError is returned by Validate when the message does not fit the grammar.
type UsageError struct {
	Command     string
	Usage       string
	Description string

	// Cause is set when matching itself failed, e.g. on a match timeout.
	Cause error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("cmd: usage mismatch for %q: %s", e.Command, e.Usage)
}

func (e *UsageError) Unwrap() error { return ErrUsageMismatch }

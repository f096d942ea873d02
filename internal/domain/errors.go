package domain

import (
	"errors"
	"fmt"
)

// ErrSchema is returned when the board relations are still unusable after
// the schema has been re-initialized once.
var ErrSchema = errors.New("board schema unavailable")

// ValidationError reports a malformed edit or rename request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced agent does not exist.
type NotFoundError struct {
	Agent string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found", e.Agent)
}

// ConflictError reports that a rename target is already taken.
type ConflictError struct {
	Agent string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("agent %q already exists", e.Agent)
}

// PersistenceError reports a failed storage transaction. The transaction
// has been rolled back in full when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Error codes sent to clients.
const (
	CodeInvalidParams = "invalid_params"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodePersistence   = "persistence_failure"
	CodeInternal      = "internal"
)

// ErrorCode maps an error to the code reported to the requesting client.
func ErrorCode(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return CodeInvalidParams
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.As(err, &ce):
		return CodeConflict
	case errors.As(err, &pe):
		return CodePersistence
	default:
		return CodeInternal
	}
}

// PublicMessage returns the human-readable message for a client. Storage
// details stay in the server log.
func PublicMessage(err error) string {
	switch ErrorCode(err) {
	case CodeInvalidParams:
		return err.Error()
	case CodeNotFound:
		return "Original agent not found."
	case CodeConflict:
		return "Target name already exists."
	case CodePersistence:
		return "Could not save the change; nothing was modified."
	default:
		return "Internal error."
	}
}

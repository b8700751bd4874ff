package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core. Match them with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidState        = errors.New("invalid state")
	ErrValidation          = errors.New("validation failed")
	ErrExternalUnavailable = errors.New("external collaborator unavailable")
)

// Error carries a kind plus enough context to render a user-facing message.
type Error struct {
	Kind    error
	Entity  EntityType
	ID      string
	Field   string
	Message string
}

func (e *Error) Error() string {
	subject := string(e.Entity)
	if e.ID != "" {
		subject = fmt.Sprintf("%s %s", e.Entity, e.ID)
	}
	if e.Field != "" {
		subject = fmt.Sprintf("%s field %s", subject, e.Field)
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if subject == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", subject, msg)
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// NotFound reports a missing or foreign record.
func NotFound(entity EntityType, id string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

// Conflict reports an operation that would break a uniqueness invariant.
func Conflict(entity EntityType, id, message string) error {
	return &Error{Kind: ErrConflict, Entity: entity, ID: id, Message: message}
}

// InvalidState reports an operation not permitted in the record's current status.
func InvalidState(entity EntityType, id, message string) error {
	return &Error{Kind: ErrInvalidState, Entity: entity, ID: id, Message: message}
}

// Validation reports malformed input for a single field.
func Validation(entity EntityType, field, message string) error {
	return &Error{Kind: ErrValidation, Entity: entity, Field: field, Message: message}
}

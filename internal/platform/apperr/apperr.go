package apperr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Kind string

const (
	KindInternal     Kind = "internal"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindUnconfigured Kind = "unconfigured"
	KindValidation   Kind = "validation"
	KindTransient    Kind = "transient"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
)

const (
	pgUniqueViolation  = "23505"
	pgInvalidTextInput = "22P02"
)

// Error is a classified failure. Two errors are equal under errors.Is when
// their codes match, so sentinels survive wrapping with extra context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: cause}
}

// Validation builds a validation error with a caller-specific message.
func Validation(message string) *Error {
	return New(KindValidation, "validation_error", message)
}

var (
	ErrTransient = New(KindTransient, "storage_unavailable", "storage temporarily unavailable, retry later")
	ErrForbidden = New(KindForbidden, "forbidden", "insufficient permissions")
)

// KindOf reports the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may retry the failed operation.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

// FromDB classifies a persistence error. notFound is returned for pgx.ErrNoRows
// and malformed ids, conflict for unique violations; either may be nil to pass
// the error through.
func FromDB(err error, notFound, conflict *Error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgInvalidTextInput && notFound != nil:
			// a malformed id can never match a row
			return notFound
		case pgErr.Code == pgUniqueViolation && conflict != nil:
			return conflict
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return ErrTransient.Wrap(err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return ErrTransient.Wrap(err)
	}
	return err
}

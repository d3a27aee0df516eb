package apierr

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/platform/httpx"
)

var (
	// ErrTransient marks provider/database hiccups the task runner should retry.
	ErrTransient = errors.New("transient")
	// ErrSchemaViolation marks LLM output outside the allowed structure or id set.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrInvariant marks a broken domain rule (self edge, empty cluster).
	ErrInvariant = errors.New("invariant violation")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

type Kind string

const (
	KindTransient       Kind = "transient"
	KindSchemaViolation Kind = "schema_violation"
	KindInvariant       Kind = "invariant_violation"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

func tag(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

func Transient(msg string) error       { return tag(ErrTransient, msg) }
func SchemaViolation(msg string) error { return tag(ErrSchemaViolation, msg) }
func Invariant(msg string) error       { return tag(ErrInvariant, msg) }
func NotFound(msg string) error        { return tag(ErrNotFound, msg) }
func InvalidArgument(msg string) error { return tag(ErrInvalidArgument, msg) }
func Conflict(msg string) error        { return tag(ErrConflict, msg) }

// Classify maps tagged, database and provider errors onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrSchemaViolation):
		return KindSchemaViolation
	case errors.Is(err, ErrInvariant):
		return KindInvariant
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return KindConflict // unique_violation
		case "23503":
			return KindNotFound // foreign_key_violation
		case "40001", "40P01", "55P03":
			return KindTransient // serialization/deadlock/lock_not_available
		}
	}
	if httpx.IsRetryableError(err) {
		return KindTransient
	}
	return KindInternal
}

// Retryable reports whether the task runner should try again.
func Retryable(err error) bool {
	k := Classify(err)
	return k == KindTransient || k == KindInternal
}

// HTTPStatus maps err to a status code and a response code string.
func HTTPStatus(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status, ae.Code
	}
	switch Classify(err) {
	case KindNotFound:
		return http.StatusNotFound, string(KindNotFound)
	case KindInvalidArgument:
		return http.StatusBadRequest, string(KindInvalidArgument)
	case KindInvariant:
		return http.StatusUnprocessableEntity, string(KindInvariant)
	case KindConflict:
		return http.StatusConflict, string(KindConflict)
	case KindTransient:
		return http.StatusServiceUnavailable, string(KindTransient)
	case KindSchemaViolation:
		return http.StatusBadGateway, string(KindSchemaViolation)
	default:
		return http.StatusInternalServerError, string(KindInternal)
	}
}

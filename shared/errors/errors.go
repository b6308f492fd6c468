package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func NotFound(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound}
}

func BadRequest(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest}
}

// ErrReplyAddressTaken is returned by storage when a generated reply address collides with an issued one.
var ErrReplyAddressTaken = &ErrorWithStatusCode{Message: "reply address already taken", StatusCode: http.StatusConflict}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the http status carried by err, 500 if none.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NonFieldErrors is the key for violations not tied to a single field.
const NonFieldErrors = "__all__"

// ValidationError collects every violation found while validating one object.
type ValidationError struct {
	Violations map[string][]string
}

func (e *ValidationError) Add(field, format string, args ...any) {
	if e.Violations == nil {
		e.Violations = make(map[string][]string)
	}
	e.Violations[field] = append(e.Violations[field], fmt.Sprintf(format, args...))
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Violations[field]) > 0
}

// OrNil returns nil when nothing was collected so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Violations[f], "; ")))
	}
	return strings.Join(parts, "; ")
}

// Is, As and New are re-exported so callers don't need two errors imports.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind is the normalized failure taxonomy of the gallery.
type ErrorKind string

const (
	// KindNetwork means the transport was unreachable or timed out
	KindNetwork ErrorKind = "network"

	// KindDecode means a response did not have the expected shape
	KindDecode ErrorKind = "decode"

	// KindValidation means a draft violated one or more field rules
	KindValidation ErrorKind = "validation"

	// KindMediaUpload means the media host rejected or failed the upload
	KindMediaUpload ErrorKind = "media_upload"

	// KindAPI means the API answered with a non-2xx status
	KindAPI ErrorKind = "api"

	// KindPrecondition means an operation was called without its prerequisite
	KindPrecondition ErrorKind = "precondition"

	// KindUnknown is returned by KindOf for errors outside the taxonomy
	KindUnknown ErrorKind = "unknown"
)

// Error wraps a failure with its category.
type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int // only set for KindAPI
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a categorized error.
func NewError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// NewAPIError creates a KindAPI error for a non-2xx response.
func NewAPIError(op string, statusCode int, message string) *Error {
	return &Error{Kind: KindAPI, Op: op, StatusCode: statusCode, Message: message}
}

// ValidationError carries every violated field of a draft with its message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation: " + strings.Join(parts, "; ")
}

// KindOf extracts the category of err.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err belongs to the given category.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode returns the HTTP status carried by a KindAPI error, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

package validate

import (
	"fmt"
	"strings"
)

// Kind classifies a validation failure. The consumer's acknowledgment
// decision only depends on whether an error is a validation error at all
// (all kinds are poison), but the kind and fields are kept so the log line
// for a discarded message says exactly what was wrong with it.
type Kind int

const (
	// KindParse means the body is not well-formed JSON.
	KindParse Kind = iota
	// KindSchema means one or more required fields are absent.
	KindSchema
	// KindType means a field is present but not of the expected type.
	KindType
	// KindRange means a numeric field is outside its allowed range.
	KindRange
	// KindFormat means the timestamp is not a timezone-aware ISO-8601 instant.
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindType:
		return "type"
	case KindRange:
		return "range"
	case KindFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Error describes why a message body was rejected. Fields holds the missing
// or offending field names; Payload holds the original body for parse
// failures so the log supports forensic replay.
type Error struct {
	Kind    Kind
	Fields  []string
	Payload []byte
	msg     string
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s error: %s (%s)", e.Kind, e.msg, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

func newParseError(payload []byte, cause error) *Error {
	return &Error{Kind: KindParse, Payload: payload, msg: "body is not valid JSON", cause: cause}
}

func newSchemaError(missing []string) *Error {
	return &Error{Kind: KindSchema, Fields: missing, msg: "required fields missing"}
}

func newTypeError(field, want string) *Error {
	return &Error{Kind: KindType, Fields: []string{field}, msg: "field must be " + want}
}

func newRangeError(field string, value, min, max float64) *Error {
	return &Error{
		Kind:   KindRange,
		Fields: []string{field},
		msg:    fmt.Sprintf("value %v outside [%v, %v]", value, min, max),
	}
}

func newFormatError(value string, cause error) *Error {
	return &Error{
		Kind:   KindFormat,
		Fields: []string{FieldTimestamp},
		msg:    fmt.Sprintf("timestamp %q is not a timezone-aware ISO-8601 instant", value),
		cause:  cause,
	}
}

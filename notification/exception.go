package notification

import (
	"errors"
	"fmt"
	"strings"
)

// Summary and details field names written by FillFromException.
const (
	FieldType           = "type"
	FieldMessage        = "message"
	FieldTopmostLine    = "topmost_line_in_backtrace"
	FieldFullBacktrace  = "full_backtrace"
	backtraceLineJoiner = "\n"
)

// Backtracer is implemented by errors that carry the stack they were created on.
// Frames are ordered innermost first.
type Backtracer interface {
	Backtrace() []string
}

// TypeNamer lets an error report a type name other than its Go type.
type TypeNamer interface {
	TypeName() string
}

// tracedError attaches a captured stack to an error.
type tracedError struct {
	err    error
	frames []string
}

// Trace wraps err with the stack of the caller of Trace. An error that already
// carries a backtrace is returned unchanged, as is nil.
func Trace(err error) error {
	return TraceSkip(err, 1)
}

// TraceSkip is Trace for wrappers: the stack starts skip frames above the
// caller of TraceSkip.
func TraceSkip(err error, skip int) error {
	if err == nil {
		return nil
	}
	var bt Backtracer
	if errors.As(err, &bt) {
		return err
	}
	return &tracedError{err: err, frames: callers(skip + 1)}
}

func (e *tracedError) Error() string       { return e.err.Error() }
func (e *tracedError) Unwrap() error       { return e.err }
func (e *tracedError) Backtrace() []string { return e.frames }
func (e *tracedError) TypeName() string    { return ExceptionType(e.err) }

// ExceptionType names the type of err.
func ExceptionType(err error) string {
	if tn, ok := err.(TypeNamer); ok {
		return tn.TypeName()
	}
	return fmt.Sprintf("%T", err)
}

// BacktraceOf returns the backtrace carried anywhere in err's chain, or nil.
func BacktraceOf(err error) []string {
	var bt Backtracer
	if errors.As(err, &bt) {
		return bt.Backtrace()
	}
	return nil
}

// FillFromException fills the notification from err without overriding a title
// or location set earlier.
//
//   - Title becomes "type: message" and is not used when combining fails.
//   - Location becomes the topmost backtrace frame and is used when combining.
//
// The summary section gets type (checksum), message and
// topmost_line_in_backtrace (checksum); details gets full_backtrace.
func (n *Notification) FillFromException(err error) *Notification {
	if err == nil {
		return n
	}

	typeName := ExceptionType(err)
	message := err.Error()
	backtrace := BacktraceOf(err)

	var topmost string
	if len(backtrace) > 0 {
		topmost = backtrace[0]
	}

	if !n.titleSet {
		n.title = typeName + ": " + message
		n.titleSet = true
	}
	if !n.locationSet && topmost != "" {
		n.SetLocation(topmost)
		n.useLocationInChecksum = true
	}

	n.addField(SectionSummary, Field{Name: FieldType, Value: typeName, Options: checksumOptions(true)}, Placement{})
	n.addField(SectionSummary, Field{Name: FieldMessage, Value: message, Options: checksumOptions(false)}, Placement{})
	n.addField(SectionSummary, Field{Name: FieldTopmostLine, Value: topmost, Options: checksumOptions(true)}, Placement{})
	n.addField(SectionDetails, Field{
		Name:    FieldFullBacktrace,
		Value:   strings.Join(backtrace, backtraceLineJoiner),
		Options: checksumOptions(false),
	}, Placement{})

	return n
}

func checksumOptions(use bool) FieldOptions {
	opts := DefaultFieldOptions()
	opts.UseInChecksum = use
	return opts
}

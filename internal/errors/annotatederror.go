// Package errors provides error wrapping with slog annotations so that the
// context gathered on the way up the call stack ends up in the logs.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// AnnotatedError carries a message, optional slog attributes, and the
// location of the call site that created it.
type AnnotatedError struct {
	err    error
	msg    string
	attrs  []slog.Attr
	source string
}

func (e *AnnotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *AnnotatedError) Unwrap() error {
	return e.err
}

// Wrap annotates err with a message and optional [slog.Attr] for logging with
// [SlogError]. The wrapped error records the caller's file and line.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &AnnotatedError{
		err:    err,
		msg:    msg,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip callerSource and Wrap.
	}
}

// New creates an annotated error recording the caller's file and line.
func New(msg string) error {
	return &AnnotatedError{
		err:    nil,
		msg:    msg,
		attrs:  nil,
		source: callerSource(2), //nolint:mnd // skip callerSource and New.
	}
}

// NewSentinel creates an error intended for package-level sentinel values.
// It records no source location since the definition site is not interesting.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// DecoratePanic converts a recovered panic value into an error whose source
// points at the panic site rather than the recover site.
func DecoratePanic(excp any) error {
	return &AnnotatedError{
		err:    nil,
		msg:    fmt.Sprintf("panic: %v", excp),
		attrs:  nil,
		source: panicSource(),
	}
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join wraps the given errors into a single error. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// SlogError converts an error into a [slog.Attr] containing the error
// message, the source of the innermost annotated error, and all annotations
// collected from the error tree.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error")
	}

	var (
		annotations []any
		source      string
	)
	collectAnnotations(err, &annotations, &source)

	args := []any{slog.String("message", err.Error())}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	if len(annotations) > 0 {
		args = append(args, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", args...)
}

// collectAnnotations walks the error tree depth-first gathering attributes.
// The source of the first annotated error encountered wins since it is the
// closest to where things went wrong from the caller's point of view.
func collectAnnotations(err error, annotations *[]any, source *string) {
	if err == nil {
		return
	}

	if annotated, ok := err.(*AnnotatedError); ok { //nolint:errorlint // walking the tree manually.
		for _, attr := range annotated.attrs {
			*annotations = append(*annotations, attr)
		}
		if *source == "" {
			*source = annotated.source
		}
	}

	switch unwrapped := err.(type) { //nolint:errorlint // walking the tree manually.
	case interface{ Unwrap() error }:
		collectAnnotations(unwrapped.Unwrap(), annotations, source)
	case interface{ Unwrap() []error }:
		for _, sub := range unwrapped.Unwrap() {
			collectAnnotations(sub, annotations, source)
		}
	}
}

// callerSource returns the file:line of the caller after skipping the given
// number of frames.
func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// panicSource walks the stack to find the frame that panicked.
func panicSource() string {
	const maxDepth = 64
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	seenGopanic := false
	for {
		frame, more := frames.Next()
		switch {
		case strings.HasPrefix(frame.Function, "runtime.gopanic"):
			seenGopanic = true
		case seenGopanic && !strings.HasPrefix(frame.Function, "runtime."):
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}

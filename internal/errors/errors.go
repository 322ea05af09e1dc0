package errors

import (
	"errors"
	"fmt"
	"time"
)

// Base error types
var (
	ErrIO    = errors.New("sensor source unreadable")
	ErrParse = errors.New("sensor source malformed")
)

// ErrorType represents the category of a sensor failure
type ErrorType string

const (
	ErrorTypeIO    ErrorType = "io"
	ErrorTypeParse ErrorType = "parse"
)

// SensorError is a structured error for a single sensor read
type SensorError struct {
	Type      ErrorType
	Op        string // Operation that failed (e.g., "open", "parse_line")
	Source    string // Pseudo-file the reader was consuming
	Line      string // Offending line for parse failures, if any
	Err       error  // Underlying error
	Timestamp time.Time
}

func (e *SensorError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("%s %s: %v (line %q)", e.Op, e.Source, e.Err, e.Line)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *SensorError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *SensorError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrIO:
		return e.Type == ErrorTypeIO
	case ErrParse:
		return e.Type == ErrorTypeParse
	}

	return errors.Is(e.Err, target)
}

// NewSensorError creates a new SensorError
func NewSensorError(errorType ErrorType, op, source string, err error) *SensorError {
	return &SensorError{
		Type:      errorType,
		Op:        op,
		Source:    source,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// WithLine attaches the offending input line to the error
func (e *SensorError) WithLine(line string) *SensorError {
	e.Line = line
	return e
}

// WrapIOError wraps a failure to open or read a source file
func WrapIOError(op, source string, err error) error {
	return NewSensorError(ErrorTypeIO, op, source, err)
}

// NewParseError reports a line or file that does not match the expected shape
func NewParseError(source, line, format string, args ...any) error {
	return NewSensorError(ErrorTypeParse, "parse", source, fmt.Errorf(format, args...)).WithLine(line)
}

// TypeOf returns the sensor error category, or "" for foreign errors
func TypeOf(err error) ErrorType {
	var sensorErr *SensorError
	if errors.As(err, &sensorErr) {
		return sensorErr.Type
	}
	return ""
}

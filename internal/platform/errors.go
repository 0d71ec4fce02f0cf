package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrLaunchFailure indicates the external tool binary is missing or could not start.
	ErrLaunchFailure = errors.New("external tool launch failure")
	// ErrEmptyResponse indicates the tool exited without writing metadata.
	ErrEmptyResponse = errors.New("external tool returned empty response")
	// ErrMetadataParse indicates the metadata payload is not a JSON object.
	ErrMetadataParse = errors.New("metadata parse error")
	// ErrTerminated indicates the process was killed through Terminate.
	ErrTerminated = errors.New("external tool terminated")
	// ErrProcessActive indicates a second download was started on a busy client.
	ErrProcessActive = errors.New("external tool process already active")
)

// ToolError describes a failed invocation of the external tool.
type ToolError struct {
	Op     string
	Binary string
	Stderr string
	Kind   error
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Binary, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += " (" + e.Stderr + ")"
	}
	return msg
}

// Is matches the failure kind.
func (e *ToolError) Is(target error) bool {
	return target == e.Kind
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ParseError wraps a JSON decoding failure of the metadata payload.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMetadataParse, e.Err)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMetadataParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidImage = errors.New("invalid image")
	ErrUpstream     = errors.New("upstream failure")
	ErrParse        = errors.New("unparseable answer")
	ErrNoConflict   = errors.New("conflict set has a single opinion")
)

// ProducerError is a failed text-only producer call. It never leaves the
// workflow: the opinion is replaced by an error marker.
type ProducerError struct {
	Producer string
	Err      error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("producer %s: %v", e.Producer, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// UpstreamError is a failed call that fails the whole request: a visual
// producer, the describer, the arbiter or the advisor.
type UpstreamError struct {
	Role string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Role, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// ParseError reports which normalizer stage rejected the input.
type ParseError struct {
	Stage  string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s (input: %q)", e.Stage, e.Reason, truncate(e.Input, 120))
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package types

import (
	"errors"
	"fmt"
)

// NotFoundError reports an unknown cluster, node, alert or analysis id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidStateError reports an operation applied to a record whose state
// does not permit it, e.g. resolving an already resolved alert.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func NewInvalidStateError(op, reason string) *InvalidStateError {
	return &InvalidStateError{Op: op, Reason: reason}
}

func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}

// UpstreamUnavailableError reports a telemetry or alert store failure.
// Missing data is never wrapped in this error, only storage level failures,
// so that sparse telemetry degrades confidence instead of failing requests.
type UpstreamUnavailableError struct {
	Source string
	Err    error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

func NewUpstreamUnavailableError(source string, err error) *UpstreamUnavailableError {
	return &UpstreamUnavailableError{Source: source, Err: err}
}

func IsUpstreamUnavailable(err error) bool {
	var uu *UpstreamUnavailableError
	return errors.As(err, &uu)
}

// Package types contains the shared types for mailprobe.
// This package does not import anything from other mailprobe packages
// to avoid circular imports.
package types

import (
	"errors"
	"fmt"
)

// Verdict is the tri-state outcome of one mailbox probe.
type Verdict int

const (
	Indeterminate Verdict = iota
	Accepted
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "indeterminate"
	}
}

// Status is the user-facing classification of an address.
type Status = string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusRisky   Status = "risky"
)

// Confidence values attached to each outcome.
const (
	ConfidenceAccepted      = 95
	ConfidenceIndeterminate = 50
	ConfidenceUnresolved    = 30
	ConfidenceNone          = 0
)

// Outcome maps a probe verdict to its status and confidence.
func Outcome(v Verdict) (Status, int) {
	switch v {
	case Accepted:
		return StatusValid, ConfidenceAccepted
	case Rejected:
		return StatusInvalid, ConfidenceNone
	default:
		return StatusRisky, ConfidenceIndeterminate
	}
}

var (
	// ErrUnavailable signals that the probing channel itself cannot be used
	// (outbound port blocked, connection refused, conversation timed out).
	// It says nothing about any particular mailbox.
	ErrUnavailable = errors.New("mailprobe: smtp channel unavailable")

	// ErrNoMailExchanger is returned when a domain has no usable MX record.
	ErrNoMailExchanger = errors.New("mailprobe: no mail exchanger")
)

// UnavailableError carries the detail of an ErrUnavailable failure.
type UnavailableError struct {
	Host   string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("smtp unavailable on %s: %s", e.Host, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is reports ErrUnavailable as a match so callers can use errors.Is.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

package enrollment

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound marks an error caused by an identifier with no enrolled
// device behind it. Callers detect it with errors.Is.
var ErrDeviceNotFound = errors.New("device not found")

// EnrollmentError reports a device creation or update the backend rejected,
// or required fixed-position fields missing from the message body.
type EnrollmentError struct {
	Reason string
	cause  error
}

func (e *EnrollmentError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("enrollment: %s: %v", e.Reason, e.cause)
	}
	return "enrollment: " + e.Reason
}

func (e *EnrollmentError) Unwrap() error { return e.cause }

// ConfigurationError reports a policy computation failure that happened
// after device state was already persisted. It never rolls the device
// update back.
type ConfigurationError struct {
	Reason string
	cause  error
}

func (e *ConfigurationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.cause)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

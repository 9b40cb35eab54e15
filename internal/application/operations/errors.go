package operations

// ResolverError reports a failure while resolving or updating the pending
// operation queue for a device.
type ResolverError struct {
	Reason string
	cause  error
}

func (e *ResolverError) Error() string {
	if e.cause != nil {
		return e.Reason + ": " + e.cause.Error()
	}
	return e.Reason
}

func (e *ResolverError) Unwrap() error { return e.cause }

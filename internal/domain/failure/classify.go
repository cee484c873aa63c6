package failure

import (
	"context"
	"errors"
	"net"
)

type ErrorKind string

const (
	KindNetworkTransient    ErrorKind = "network_transient"
	KindServerTransient     ErrorKind = "server_transient"
	KindAuthPermanent       ErrorKind = "auth_permanent"
	KindRateLimitPermanent  ErrorKind = "rate_limit_permanent"
	KindParsePermanent      ErrorKind = "parse_permanent"
	KindValidationPermanent ErrorKind = "validation_permanent"
	KindPermissionPermanent ErrorKind = "permission_permanent"
	KindUnknown             ErrorKind = "unknown"
)

// Classification is the classifier's verdict for one raw failure signal.
// MessageKey indexes the message catalog for the user-facing text.
type Classification struct {
	Kind       ErrorKind
	Retryable  bool
	MessageKey string
}

// Classify maps a raw failure signal to exactly one ErrorKind. It is a
// total, pure function: it never returns an empty classification, never
// panics, and classifying the same error twice yields the same result.
// All side effects (scheduling a retry, deleting the artifact, notifying
// the user) belong to the caller.
func Classify(err error) Classification {
	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.Code >= 500:
			return Classification{KindServerTransient, true, "failure.server_transient"}
		case status.Code == 401 || status.Code == 403:
			return Classification{KindAuthPermanent, false, "failure.auth_permanent"}
		case status.Code == 429:
			// Non-retryable: the user waits and retries manually rather
			// than having the backoff hammer the quota.
			return Classification{KindRateLimitPermanent, false, "failure.rate_limit"}
		case status.Code >= 400:
			return Classification{KindValidationPermanent, false, "failure.validation"}
		}
	}

	var parse *ParseError
	if errors.As(err, &parse) {
		return Classification{KindParsePermanent, false, "failure.parse"}
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return Classification{KindValidationPermanent, false, "failure.validation"}
	}

	var permission *PermissionError
	if errors.As(err, &permission) {
		return Classification{KindPermissionPermanent, false, "failure.permission"}
	}

	if isTransport(err) {
		return Classification{KindNetworkTransient, true, "failure.network_transient"}
	}

	return Classification{KindUnknown, false, "failure.unknown"}
}

func isTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

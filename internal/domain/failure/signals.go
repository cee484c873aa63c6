package failure

import "fmt"

// Raw failure signals produced by the analysis pipeline's collaborators.
// Adapters and repositories surface errors as one of these types (or as a
// plain transport error); Classify maps every one of them to an ErrorKind.

// StatusError is a non-2xx HTTP response from the vision service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// ParseError is a structurally invalid response body.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse response: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError is a domain validation failure on an otherwise
// well-formed result.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return "invalid " + e.Field + ": " + e.Reason }

// PermissionError is a permission denial from the record store.
type PermissionError struct {
	Op  string
	Err error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return "permission denied: " + e.Op
	}
	return "permission denied: " + e.Op + ": " + e.Err.Error()
}

func (e *PermissionError) Unwrap() error { return e.Err }

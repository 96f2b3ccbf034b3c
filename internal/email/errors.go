package email

import "fmt"

// codeTransport mirrors the domain transport error code so this package
// does not import domain. The dispatch layer wraps it into a domain
// error for HTTP status mapping.
const codeTransport = "transport"

// EmailError represents a transport-level error with a code and a
// human-readable message safe to store on the email log.
type EmailError struct {
	Code    string
	Message string
}

func (e *EmailError) Error() string {
	return e.Message
}

// TransportError creates a provider-rejection error with a message fit
// for the email log's error_message column.
func TransportError(format string, args ...interface{}) error {
	return &EmailError{
		Code:    codeTransport,
		Message: fmt.Sprintf(format, args...),
	}
}

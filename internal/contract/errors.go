package contract

import (
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned when an operation is not declared by the service.
var ErrUnknownOperation = errors.New("unknown operation")

// SchemaError reports arguments that do not match an operation's declared shape.
// It is raised before any network interaction.
type SchemaError struct {
	Operation string
	Reason    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %s", e.Operation, e.Reason)
}

// RemoteCallError reports a transport failure or a remote-side rejection.
type RemoteCallError struct {
	Operation string
	Err       error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call %s failed: %v", e.Operation, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsRemoteCallError reports whether err is or wraps a RemoteCallError.
func IsRemoteCallError(err error) bool {
	var remoteErr *RemoteCallError
	return errors.As(err, &remoteErr)
}

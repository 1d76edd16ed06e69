package translator

import (
	"errors"
	"fmt"
)

// ServiceError is returned by services when the remote side fails or
// rejects a request. StatusCode is zero for transport failures.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// fail records err on the result and returns both, the way every service
// reports a failed call.
func fail(result *ServiceResult, err *ServiceError) (*ServiceResult, error) {
	result.Error = err.Error()
	return result, err
}

// StatusCode extracts the HTTP status from a ServiceError in err's chain, or
// returns 0.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

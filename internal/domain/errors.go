package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data to train")
	ErrModelUnavailable = errors.New("cluster model unavailable")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// DegradedError marks a failure the pipeline recovers from by falling back
// (empty candidate set, no clustering) instead of failing the request.
type DegradedError struct {
	Op  string
	Err error
}

func (e *DegradedError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *DegradedError) Unwrap() error { return e.Err }

func Degrade(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DegradedError{Op: op, Err: err}
}

// IsRecoverable reports whether err has a defined fallback in the pipeline.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	var d *DegradedError
	if errors.As(err, &d) {
		return true
	}
	return errors.Is(err, ErrModelUnavailable) || errors.Is(err, ErrInsufficientData)
}

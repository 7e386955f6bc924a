package discovery

import "fmt"

// ExtractionError is returned when the capability list could not be obtained, before any search
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("capability extraction: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

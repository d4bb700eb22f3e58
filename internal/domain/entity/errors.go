package entity

import "fmt"

// ValidationError reports a missing or malformed request parameter
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchFailedError reports that a record source could not produce records
type FetchFailedError struct {
	Carrier string
	Err     error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed for carrier %s: %v", e.Carrier, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// StoreUnavailableError reports that the persistence layer rejected an operation
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

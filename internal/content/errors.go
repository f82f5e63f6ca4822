package content

import "fmt"

// FetchError reports a failed page fetch. StatusCode is zero when the
// request never produced a response (DNS failure, refused connection,
// timeout) and the upstream status otherwise.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: upstream returned %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StoreError reports a failed persistence operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError reports a rejected request before any outbound work.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

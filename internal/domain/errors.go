package domain

import "fmt"

// ValidationError rejects bad input (missing chat ID, unsupported URL)
// before any network call happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ResolutionError indicates that the media resolver could not produce a
// usable descriptor for a tweet URL: HTTP failure, non-2xx status, or a
// response body that doesn't match the expected shape.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// MediaFetchError indicates that downloading raw media bytes for inline
// upload failed.
type MediaFetchError struct {
	URL string
	Err error
}

func (e *MediaFetchError) Error() string {
	return fmt.Sprintf("fetch media %s: %v", e.URL, e.Err)
}

func (e *MediaFetchError) Unwrap() error { return e.Err }

// DispatchError indicates a failed Telegram API call.
type DispatchError struct {
	Op  string // sendMessage | sendPhoto | sendMediaGroup | deleteMessage
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("telegram %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

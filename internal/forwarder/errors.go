package forwarder

import (
	"errors"
	"fmt"
)

// ErrEmptyMessageID is returned when Forward is called without an identifier.
var ErrEmptyMessageID = errors.New("forwarder: empty message id")

// StorageFetchError reports that the stored email could not be read:
// the object is missing, storage is unreachable, or access was denied.
type StorageFetchError struct {
	MessageID string
	Err       error
}

func (e *StorageFetchError) Error() string {
	return fmt.Sprintf("forwarder: fetch message %s: %v", e.MessageID, e.Err)
}

func (e *StorageFetchError) Unwrap() error {
	return e.Err
}

// NetworkError reports that the POST could not be completed: the connection
// failed or the timeout elapsed before a response arrived.
type NetworkError struct {
	MessageID string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("forwarder: post message %s to %s: %v", e.MessageID, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

package layerzero

import "encoding/json"

// RawMessage is a message record as returned by the scan API. Its shape
// differs between API versions, so every field is optional.
type RawMessage map[string]any

// Outcome carries the result of an upstream call. Available is false when
// the upstream could not be reached or answered with a non-success status;
// Value is then the zero value.
type Outcome[T any] struct {
	Value     T
	Available bool
}

// Found wraps an upstream value.
func Found[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Available: true}
}

// Unavailable marks an upstream call that produced nothing.
func Unavailable[T any]() Outcome[T] {
	return Outcome[T]{}
}

type ClientConfig struct {
	APIBaseURL    string
	TxPageBaseURL string
	UserAgent     string
	TimeoutSec    int
}

// messagesResponse keeps each row raw so one malformed row cannot fail the
// whole page.
type messagesResponse struct {
	Messages []json.RawMessage `json:"messages"`
}

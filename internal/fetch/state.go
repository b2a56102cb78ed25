package fetch

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle position of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the snapshot delivered to subscribers.
type State struct {
	Status Status
	// Value is the last fetched value, or the placeholder before the first result.
	Value any
	Err   error
	// IsLoading is set while the first fetch for the key has not settled.
	IsLoading bool
	IsError   bool
	// IsFetching is set whenever a fetch for the key is in flight.
	IsFetching    bool
	IsPlaceholder bool
	UpdatedAt     time.Time

	version uint64
}

// Key identifies a cached query: operation identity, arguments and any
// contextual dependency such as the signed-in principal.
type Key []any

// NewKey builds a key from its parts.
func NewKey(parts ...any) Key {
	return Key(parts)
}

// String returns the canonical form used to index the cache.
func (k Key) String() string {
	data, err := json.Marshal([]any(k))
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return string(data)
}

// Operation returns the first key part when it is a string.
func (k Key) Operation() string {
	if len(k) == 0 {
		return ""
	}
	op, _ := k[0].(string)
	return op
}

// Package localstore is the client's local persistence side channel: small
// JSON documents under string keys, grouped by namespace (one per chat).
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("local entry not found")

// Entry is a stored value with the time it was written.
type Entry struct {
	Value   json.RawMessage `json:"value"`
	SavedAt time.Time       `json:"savedAt"`
}

// Decode unmarshals the entry value into out.
func (e Entry) Decode(out any) error {
	if err := json.Unmarshal(e.Value, out); err != nil {
		return fmt.Errorf("decode local entry: %w", err)
	}
	return nil
}

// Storage holds the entries of one namespace.
type Storage interface {
	Load(ctx context.Context, key string) (Entry, error)
	Save(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, keys ...string) error
}

// Provider hands out a Storage per namespace.
type Provider interface {
	For(namespace string) Storage
}

func encode(value any) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode local entry: %w", err)
	}
	return raw, nil
}

package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrViewNotFound = errors.New("view not found")

// Store keeps view state between requests. Update is an atomic
// read-modify-write: when fn returns an error nothing is written. fn may be
// called again on a fresh copy when a concurrent writer wins the race.
type Store[T any] interface {
	Create(ctx context.Context, id string, view *T) error
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, fn func(view *T) error) (*T, error)
}

func encode[T any](view *T) ([]byte, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}
	return data, nil
}

func decode[T any](data []byte) (*T, error) {
	var view T
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to decode view: %w", err)
	}
	return &view, nil
}

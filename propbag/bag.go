// Package propbag holds loosely typed key/value data decoded from a remote
// response so that it can be read back with typed getters.
package propbag

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the key is not present in the bag.
	ErrNotFound = errors.New("key not found")
	// ErrTypeMismatch is returned when the stored value cannot be converted to the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDuplicateKey is returned by SetValue when the key was already written.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnsupportedValue is returned by SetValue for values that cannot be serialized.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrInvalidTarget is returned by GetValue when dst is not a non-nil pointer.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrNilBag is returned by SetValue on a nil *Map.
	ErrNilBag = errors.New("nil bag")
)

// Bag is a heterogeneous key/value store with typed accessors.
type Bag interface {
	GetString(key string) (string, error)
	GetInt(key string) (int, error)
	// GetValue converts the value stored under key into dst, which must be a non-nil pointer.
	GetValue(key string, dst any) error
	SetValue(key string, value any) error
}

// KeyError reports which key an accessor failed on.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("propbag: key %q: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

func notFound(key string) error {
	return &KeyError{Key: key, Err: ErrNotFound}
}

func mismatch(key, want string, got any) error {
	return &KeyError{Key: key, Err: fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, want, got)}
}

package cache

import "errors"

var (
	// ErrInvalidKey is returned when a key is empty or could escape the cache directory.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidPayload is returned by Put when the payload is not valid JSON.
	ErrInvalidPayload = errors.New("cache payload is not valid JSON")
)

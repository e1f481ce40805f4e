package person

import "errors"

var (
	ErrNotFound      = errors.New("person not found")
	ErrInvalidPerson = errors.New("person violates a table constraint")
	ErrUnavailable   = errors.New("person store unavailable")
)

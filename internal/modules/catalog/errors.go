package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate matches any DuplicateError via errors.Is.
	ErrDuplicate = errors.New("duplicate key")
	// ErrInvalidID matches any InvalidIDError via errors.Is.
	ErrInvalidID = errors.New("invalid identifier")
)

// ValidationError is a rejected write payload or query.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

func invalidFields(fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return &ValidationError{Message: strings.Join(msgs, ", "), Fields: fields}
}

// NotFoundError reports a missing plant or category.
type NotFoundError struct {
	Entity string // Plant | Category
	ID     string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Field string
	Value string
	Err   error
}

func (e *DuplicateError) Error() string {
	key, _ := json.Marshal(map[string]string{e.Field: e.Value})
	return fmt.Sprintf("Duplicate key error: %s", key)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

func (e *DuplicateError) Unwrap() error { return e.Err }

// InvalidIDError reports an identifier the store cannot interpret.
type InvalidIDError struct {
	Field string
	Value string
}

func (e *InvalidIDError) Error() string { return fmt.Sprintf("Invalid %s: %s", e.Field, e.Value) }

func (e *InvalidIDError) Is(target error) bool { return target == ErrInvalidID }

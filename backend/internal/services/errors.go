package services

import (
	"errors"
	"sort"
	"strings"

	"jobboard/backend/internal/storage"
)

// ErrNotFound ресурс не найден (404)
var ErrNotFound = storage.ErrNotFound

// NotFoundError 404 с сообщением для клиента
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// notFound заменяет storage.ErrNotFound на 404 с сообщением
func notFound(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Message: message}
	}
	return err
}

// ValidationError ошибки валидации по полям (422)
type ValidationError struct {
	Fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Invalid ошибка валидации одного поля
func Invalid(field, message string) *ValidationError {
	v := newValidationError()
	v.Add(field, message)
	return v
}

// Add добавляет сообщение к полю
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty нет ни одной ошибки
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err nil, если ошибок нет; нужен чтобы не вернуть типизированный nil в error
func (e *ValidationError) Err() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

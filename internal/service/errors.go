package service

import (
	"errors"
	"fmt"
)

const (
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
)

// сентинелы, к которым разворачиваются бизнес-ошибки
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, err error, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
		Err:     err,
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %s не найден(а)", resource, id),
		ErrNotFound,
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewForbidden(resource string, id string) *BusinessError {
	return NewBusinessError(CodeForbidden,
		fmt.Sprintf("нет доступа к %s %s", resource, id),
		ErrForbidden,
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewValidationError(field, value string, allowed ...string) *BusinessError {
	return NewBusinessError(CodeInvalidParameter,
		fmt.Sprintf("Неверное значение параметра '%s': %q", field, value),
		ErrInvalidParameter,
		ToDetail("field", field),
		ToDetail("value", value),
		ToDetail("allowed", allowed),
	)
}

package models

import (
	"errors"
	"fmt"
)

// Коды доменных ошибок, которые HTTP-слой переводит в статусы
const (
	ErrorCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrorCodeForbidden          = "FORBIDDEN"
	ErrorCodeValidation         = "VALIDATION_ERROR"
	ErrorCodeOverlappingAbsence = "OVERLAPPING_ABSENCE"
	ErrorCodeNotFound           = "NOT_FOUND"
	ErrorCodeConfirmHoliday     = "HOLIDAY_CONFIRMATION_REQUIRED"
	ErrorCodeUnauthorized       = "UNAUTHORIZED"
	ErrorCodeInternal           = "INTERNAL"
)

var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation error")
	ErrOverlappingAbsence  = errors.New("overlapping absence")
	ErrNotFound            = errors.New("not found")
	ErrHolidayConfirmation = errors.New("working on a public holiday requires confirmation")
	ErrUnauthorized        = errors.New("unauthorized")
)

// DomainError оборачивает доменную ошибку с кодом для HTTP-слоя
type DomainError struct {
	Code string
	Err  error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(code string, err error) *DomainError {
	return &DomainError{Code: code, Err: err}
}

func newf(code string, sentinel error, format string, args ...any) error {
	return NewDomainError(code, fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

func InvalidTransitionf(format string, args ...any) error {
	return newf(ErrorCodeInvalidTransition, ErrInvalidTransition, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newf(ErrorCodeForbidden, ErrForbidden, format, args...)
}

func Validationf(format string, args ...any) error {
	return newf(ErrorCodeValidation, ErrValidation, format, args...)
}

func OverlappingAbsencef(format string, args ...any) error {
	return newf(ErrorCodeOverlappingAbsence, ErrOverlappingAbsence, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newf(ErrorCodeNotFound, ErrNotFound, format, args...)
}

func HolidayConfirmationf(format string, args ...any) error {
	return newf(ErrorCodeConfirmHoliday, ErrHolidayConfirmation, format, args...)
}

func Unauthorizedf(format string, args ...any) error {
	return newf(ErrorCodeUnauthorized, ErrUnauthorized, format, args...)
}

// ErrorCode возвращает код доменной ошибки или ErrorCodeInternal
func ErrorCode(err error) string {
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr.Code
	}
	return ErrorCodeInternal
}

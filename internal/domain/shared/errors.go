// Package shared содержит общие доменные типы и ошибки,
// используемые всеми доменными пакетами. Пакет не имеет внешних зависимостей.
package shared

import (
	"errors"
	"fmt"
)

// Базовые доменные ошибки для проверки через errors.Is().
var (
	// Ошибки сущностей
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Ошибки валидации
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
	ErrFutureDate   = errors.New("date cannot be in the future")
	ErrExpired      = errors.New("expired")

	// Ошибки состояния
	ErrInvalidState = errors.New("invalid state")

	// Ошибки хранилища
	// ErrTransientStorage помечает сбой транзакции (конфликт, обрыв связи),
	// после которого операцию можно безопасно повторить целиком.
	ErrTransientStorage = errors.New("transient storage failure")
)

// DomainError представляет доменную ошибку с контекстом.
type DomainError struct {
	Domain  string // домен: "student", "journal", "archive", "semester"
	Op      string // операция: "RecordVisit", "Archive"
	Kind    error  // базовая ошибка для errors.Is()
	Message string // человекочитаемое сообщение
	Err     error  // исходная ошибка (опционально)
}

// Error реализует интерфейс error.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap возвращает вложенную ошибку для errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is реализует сопоставление для errors.Is().
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError создаёт новую доменную ошибку.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError оборачивает существующую ошибку доменным контекстом.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Transient помечает ошибку хранилища как временную. Вызывающая сторона
// может повторить всю операцию: проверки идемпотентности защищают от
// повторного применения.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return WrapError("storage", op, ErrTransientStorage, "transaction aborted", err)
}

// IsTransient сообщает, можно ли повторить операцию после этой ошибки.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}

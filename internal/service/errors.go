package service

import (
	"errors"
	"fmt"
)

// Sentinelas para errors.Is. Os erros tipados abaixo embrulham cada uma delas.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrAlreadyPaid        = errors.New("order already paid")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError indica entrada ausente ou inválida.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError indica carrinho, item, produto, pedido ou usuário inexistente.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s não encontrado", e.Resource)
	}
	return fmt.Sprintf("%s %d não encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError aborta o checkout inteiro.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("estoque insuficiente para o produto: %s (pedido %d, disponível %d)",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type AlreadyPaidError struct {
	OrderID uint
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("o pedido %d já foi pago", e.OrderID)
}

func (e *AlreadyPaidError) Unwrap() error { return ErrAlreadyPaid }

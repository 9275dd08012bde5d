package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
// Cada guarda o invariante tiene su propio error para que el operador distinga
// "stock insuficiente" de "documento ya procesado" o "timeout de almacenamiento".
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrDocumentLocked    = errors.New("documento bloqueado: ya está validado o cancelado")
	ErrAlreadyProcessed  = errors.New("el documento ya fue procesado")
	ErrGuardFailed       = errors.New("guarda de transición no satisfecha")
	ErrInvalidMovement   = errors.New("movimiento inválido")
	ErrUnavailable       = errors.New("almacenamiento no disponible")
)

// Variantes que envuelven a los errores base (errors.Is sigue funcionando contra la base).
var (
	// ErrInvalidTransfer origen y destino del traslado son iguales o faltan.
	ErrInvalidTransfer = fmt.Errorf("%w: traslado con ubicaciones inválidas", ErrInvalidInput)
	// ErrMissingQuantities hay líneas sin cantidad efectiva al pasar a ready.
	ErrMissingQuantities = fmt.Errorf("%w: líneas sin cantidad efectiva", ErrGuardFailed)
	// ErrInsufficientStock el stock no cubre lo requerido.
	ErrInsufficientStock = fmt.Errorf("%w: stock insuficiente", ErrGuardFailed)
)

// ValidationError detalla qué campo falló; errors.Is(err, ErrInvalidInput) es verdadero.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// MovementError indica qué invariante del libro de movimientos se violó.
type MovementError struct {
	Reason string
}

func (e *MovementError) Error() string {
	return ErrInvalidMovement.Error() + ": " + e.Reason
}

func (e *MovementError) Unwrap() error { return ErrInvalidMovement }

// Shortage faltante de un producto (opcionalmente en una ubicación).
type Shortage struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id,omitempty"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Shortage   decimal.Decimal `json:"shortage"`
}

// ShortageError agrupa los faltantes que bloquearon una validación; envuelve ErrInsufficientStock.
type ShortageError struct {
	Lines []Shortage
}

func (e *ShortageError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s faltan %s (disponible %s)", l.ProductID, l.Shortage, l.Available))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientStock }

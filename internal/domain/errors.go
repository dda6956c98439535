package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio.
var (
	ErrNotFound                       = errors.New("recurso no encontrado")
	ErrInvalidInput                   = errors.New("entrada inválida")
	ErrDuplicate                      = errors.New("recurso duplicado")
	ErrUnauthorized                   = errors.New("no autorizado")
	ErrForbidden                      = errors.New("acceso denegado")
	ErrConflict                       = errors.New("conflicto con el estado actual")
	ErrInsufficientStock              = errors.New("stock insuficiente")
	ErrUnknownPresentation            = errors.New("la presentación no pertenece al ítem")
	ErrInvalidConversionFactor        = errors.New("factor de conversión inválido")
	ErrExceedsPending                 = errors.New("la cantidad excede lo pendiente por despachar")
	ErrInvalidState                   = errors.New("transición de estado inválida")
	ErrDispatchRecordedMovementFailed = errors.New("despacho registrado pero la transferencia no se pudo registrar")
)

// ValidationError campo faltante o inválido. errors.Is(err, ErrInvalidInput) es verdadero.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// StockShortfall faltante de un ítem en una bodega.
type StockShortfall struct {
	ItemID      string
	WarehouseID string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

// InsufficientStockError lista todos los faltantes detectados antes de mutar.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("ítem %s en bodega %s: solicitado %s, disponible %s",
			s.ItemID, s.WarehouseID, s.Requested.String(), s.Available.String()))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ExceedsPendingError cantidad a despachar mayor que Requested - Dispatched.
type ExceedsPendingError struct {
	ItemID     string
	Requested  decimal.Decimal
	Dispatched decimal.Decimal
	Attempted  decimal.Decimal
}

func (e *ExceedsPendingError) Error() string {
	pending := e.Requested.Sub(e.Dispatched)
	return fmt.Sprintf("%s: ítem %s, pendiente %s, intentado %s",
		ErrExceedsPending.Error(), e.ItemID, pending.String(), e.Attempted.String())
}

func (e *ExceedsPendingError) Unwrap() error { return ErrExceedsPending }

// InvalidStateError acción no permitida en el estado actual de la requisición.
type InvalidStateError struct {
	Current string
	Action  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: no se puede %s una requisición en estado %s", ErrInvalidState.Error(), e.Action, e.Current)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// DispatchRecordedMovementFailedError advertencia: el despacho quedó registrado en la requisición
// pero la transferencia asociada falló. Se devuelve dentro de un resultado exitoso.
type DispatchRecordedMovementFailedError struct {
	RequisitionID string
	DispatchID    string
	Cause         error
}

func (e *DispatchRecordedMovementFailedError) Error() string {
	return fmt.Sprintf("%s (requisición %s, despacho %s): %v",
		ErrDispatchRecordedMovementFailed.Error(), e.RequisitionID, e.DispatchID, e.Cause)
}

func (e *DispatchRecordedMovementFailedError) Unwrap() []error {
	return []error{ErrDispatchRecordedMovementFailed, e.Cause}
}

package domain

import (
	"errors"
	"fmt"
)

// Clases de error de dominio (sin dependencias externas).
// Todo error específico envuelve una de estas clases, así que
// errors.Is(err, domain.ErrState) funciona para cualquier transición ilegal.
var (
	ErrValidation = errors.New("entrada inválida")
	ErrState      = errors.New("transición de estado inválida")
	ErrNotFound   = errors.New("recurso no encontrado")
	ErrConflict   = errors.New("conflicto con el estado actual")
)

// Error es un error de dominio con código estable (usado en las respuestas HTTP).
type Error struct {
	Code    string
	Message string
	kind    error
}

func newError(kind error, code, message string) *Error {
	return &Error{Code: code, Message: message, kind: kind}
}

func (e *Error) Error() string { return e.Message }

// Unwrap devuelve la clase del error (ErrValidation, ErrState, ErrNotFound o ErrConflict).
func (e *Error) Unwrap() error { return e.kind }

// Validación.
var (
	ErrInvalidInput      = newError(ErrValidation, "VALIDATION", "datos inválidos")
	ErrInvalidQuantity   = newError(ErrValidation, "INVALID_QUANTITY", "la cantidad no puede ser negativa")
	ErrInvalidThresholds = newError(ErrValidation, "INVALID_THRESHOLDS", "los umbrales deben ser mayores que cero")
	ErrInvalidSnapshot   = newError(ErrValidation, "INVALID_SNAPSHOT", "el conteo tiene ítems sin categoría o ubicación")
)

// Estado.
var (
	ErrTaskNotActive        = newError(ErrState, "TASK_NOT_ACTIVE", "el conteo no está en progreso")
	ErrIncompleteItems      = newError(ErrState, "INCOMPLETE_ITEMS", "hay ítems sin cantidad registrada")
	ErrEmptyTask            = newError(ErrState, "EMPTY_TASK", "el conteo no tiene ítems")
	ErrSameSnapshot         = newError(ErrState, "SAME_SNAPSHOT", "no se puede comparar un conteo consigo mismo")
	ErrSnapshotNotCompleted = newError(ErrState, "SNAPSHOT_NOT_COMPLETED", "solo se comparan conteos completados")
	ErrNoBaseline           = newError(ErrState, "NO_BASELINE", "no hay dos conteos completados para comparar")
)

// No encontrado.
var (
	ErrTaskNotFound       = newError(ErrNotFound, "TASK_NOT_FOUND", "conteo no encontrado")
	ErrProductNotFound    = newError(ErrNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado")
	ErrItemNotFound       = newError(ErrNotFound, "ITEM_NOT_FOUND", "el producto no está en el conteo")
	ErrComparisonNotFound = newError(ErrNotFound, "COMPARISON_NOT_FOUND", "comparación no encontrada")
)

// Conflicto.
var (
	ErrDuplicateItem          = newError(ErrConflict, "DUPLICATE_ITEM", "el producto ya está en el conteo")
	ErrConcurrentModification = newError(ErrConflict, "CONCURRENT_MODIFICATION", "el conteo fue modificado por otra operación")
	ErrTaskBusy               = newError(ErrConflict, "TASK_BUSY", "el conteo está siendo modificado, intente de nuevo")
)

// TaskError agrega el contexto del conteo (id y estado actual) a un error de dominio
// para que el llamador decida cómo remediar.
type TaskError struct {
	CountID string
	Status  string
	Err     error
}

// NewTaskError envuelve err con el id y el estado del conteo.
func NewTaskError(countID, status string, err error) *TaskError {
	return &TaskError{CountID: countID, Status: status, Err: err}
}

func (e *TaskError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("conteo %s: %v", e.CountID, e.Err)
	}
	return fmt.Sprintf("conteo %s (%s): %v", e.CountID, e.Status, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Code devuelve el código estable del error de dominio contenido en err, o "" si no hay.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

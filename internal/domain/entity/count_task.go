package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktake-api/internal/domain"
)

// CountStatus estado de un conteo físico. in_progress es el único estado mutable;
// completed y cancelled son terminales.
type CountStatus string

const (
	CountStatusInProgress CountStatus = "in_progress"
	CountStatusCompleted  CountStatus = "completed"
	CountStatusCancelled  CountStatus = "cancelled"
)

// Valid indica si s es un estado reconocido.
func (s CountStatus) Valid() bool {
	switch s {
	case CountStatusInProgress, CountStatusCompleted, CountStatusCancelled:
		return true
	}
	return false
}

// CountItem cantidad esperada (libros) y contada de un producto dentro de un conteo.
// Nombre, categoría, ubicación y precio se copian del catálogo al agregar el ítem,
// así renombrar o recategorizar el producto después no altera comparaciones históricas.
type CountItem struct {
	ProductID        string
	ProductName      string
	Category         string
	StorageArea      string
	UnitPrice        decimal.Decimal
	ExpectedQuantity int
	ActualQuantity   *int // nil hasta que se registra
	Note             string
	AddedAt          time.Time
	RecordedAt       *time.Time
}

// IsRecorded indica si el ítem ya tiene cantidad contada.
func (i CountItem) IsRecorded() bool { return i.ActualQuantity != nil }

// Difference devuelve contado - esperado, o nil si el ítem no se ha contado.
// Siempre se deriva de ActualQuantity; nunca se almacena.
func (i CountItem) Difference() *int {
	if i.ActualQuantity == nil {
		return nil
	}
	d := *i.ActualQuantity - i.ExpectedQuantity
	return &d
}

// CountTask conteo físico de inventario (toma de inventario).
// Version es el contador de concurrencia optimista que usa el repositorio para el compare-and-set.
type CountTask struct {
	CountID      string
	Status       CountStatus
	Operator     string
	Note         string
	Items        []CountItem // orden de inserción, ProductID único
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
	Version      int
}

// NewCountTask crea un conteo en progreso y sin ítems. operator es obligatorio.
func NewCountTask(countID, operator, note string, now time.Time) (*CountTask, error) {
	if strings.TrimSpace(countID) == "" || strings.TrimSpace(operator) == "" {
		return nil, domain.ErrInvalidInput
	}
	return &CountTask{
		CountID:   countID,
		Status:    CountStatusInProgress,
		Operator:  strings.TrimSpace(operator),
		Note:      note,
		Items:     []CountItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive indica si el conteo admite cambios.
func (t *CountTask) IsActive() bool { return t.Status == CountStatusInProgress }

func (t *CountTask) errorf(err error) error {
	return domain.NewTaskError(t.CountID, string(t.Status), err)
}

func (t *CountTask) indexOf(productID string) int {
	for i := range t.Items {
		if t.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Item devuelve una copia del ítem del producto, si existe.
func (t *CountTask) Item(productID string) (CountItem, bool) {
	idx := t.indexOf(productID)
	if idx < 0 {
		return CountItem{}, false
	}
	return t.Items[idx], true
}

// AddItem agrega el producto al conteo con la cantidad esperada indicada,
// copiando sus datos de catálogo en este instante.
func (t *CountTask) AddItem(p *Product, expected int, now time.Time) error {
	if !t.IsActive() {
		return t.errorf(domain.ErrTaskNotActive)
	}
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return domain.ErrInvalidInput
	}
	if expected < 0 {
		return domain.ErrInvalidQuantity
	}
	if t.indexOf(p.ID) >= 0 {
		return t.errorf(domain.ErrDuplicateItem)
	}
	t.Items = append(t.Items, CountItem{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Category:         nonBlank(p.Category, UncategorizedLabel),
		StorageArea:      nonBlank(p.StorageArea, UnassignedAreaLabel),
		UnitPrice:        p.UnitPrice,
		ExpectedQuantity: expected,
		AddedAt:          now,
	})
	t.UpdatedAt = now
	return nil
}

// RecordQuantity registra la cantidad contada. Volver a registrar sobrescribe el valor
// anterior (la última escritura gana), lo que permite corregir antes de completar.
func (t *CountTask) RecordQuantity(productID string, actual int, note string, now time.Time) error {
	if !t.IsActive() {
		return t.errorf(domain.ErrTaskNotActive)
	}
	idx := t.indexOf(productID)
	if idx < 0 {
		return t.errorf(domain.ErrItemNotFound)
	}
	if actual < 0 {
		return domain.ErrInvalidQuantity
	}
	qty := actual
	recorded := now
	item := &t.Items[idx]
	item.ActualQuantity = &qty
	item.RecordedAt = &recorded
	if note != "" {
		item.Note = note
	}
	t.UpdatedAt = now
	return nil
}

// Complete cierra el conteo. Requiere al menos un ítem y todos los ítems contados.
func (t *CountTask) Complete(now time.Time) error {
	if !t.IsActive() {
		return t.errorf(domain.ErrTaskNotActive)
	}
	if len(t.Items) == 0 {
		return t.errorf(domain.ErrEmptyTask)
	}
	for _, it := range t.Items {
		if !it.IsRecorded() {
			return t.errorf(domain.ErrIncompleteItems)
		}
	}
	done := now
	t.Status = CountStatusCompleted
	t.CompletedAt = &done
	t.UpdatedAt = now
	return nil
}

// Cancel anula el conteo. Un conteo anulado nunca se puede comparar.
func (t *CountTask) Cancel(reason string, now time.Time) error {
	if !t.IsActive() {
		return t.errorf(domain.ErrTaskNotActive)
	}
	cancelled := now
	t.Status = CountStatusCancelled
	t.CancelledAt = &cancelled
	t.CancelReason = reason
	t.UpdatedAt = now
	return nil
}

// CountProgress avance de un conteo.
type CountProgress struct {
	TotalItems         int
	RecordedItems      int
	PendingItems       int
	ItemsWithDiff      int
	TotalAbsDifference int
}

// Progress calcula el avance actual del conteo.
func (t *CountTask) Progress() CountProgress {
	p := CountProgress{TotalItems: len(t.Items)}
	for _, it := range t.Items {
		d := it.Difference()
		if d == nil {
			p.PendingItems++
			continue
		}
		p.RecordedItems++
		if *d != 0 {
			p.ItemsWithDiff++
			p.TotalAbsDifference += abs(*d)
		}
	}
	return p
}

// Clone devuelve una copia profunda del conteo.
func (t *CountTask) Clone() *CountTask {
	if t == nil {
		return nil
	}
	c := *t
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	c.Items = make([]CountItem, len(t.Items))
	for i, it := range t.Items {
		it.ActualQuantity = cloneInt(it.ActualQuantity)
		it.RecordedAt = cloneTime(it.RecordedAt)
		c.Items[i] = it
	}
	return &c
}

// CountTaskFilter filtro para listar conteos (Status vacío = todos).
type CountTaskFilter struct {
	Status CountStatus
	Limit  int
	Offset int
}

func nonBlank(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package stocktake

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

const (
	defaultChunkSize = 2048
	defaultWorkers   = 4
)

// Engine calcula comparaciones entre conteos. Es inmutable y seguro para uso concurrente.
// Uniones de productos mayores que ChunkSize se dividen en tramos contiguos que se
// procesan en paralelo; el resultado es idéntico al del cálculo secuencial.
type Engine struct {
	workers   int
	chunkSize int
}

// NewEngine construye el motor. Valores <= 0 toman los valores por defecto.
func NewEngine(workers, chunkSize int) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Engine{workers: workers, chunkSize: chunkSize}
}

// CheckSnapshots valida las precondiciones de una comparación: ids distintos,
// ambos conteos completados y todos sus ítems con cantidad, categoría y ubicación.
func CheckSnapshots(current, previous *entity.CountTask) error {
	if current == nil || previous == nil {
		return domain.ErrInvalidInput
	}
	if current.CountID == previous.CountID {
		return domain.NewTaskError(current.CountID, string(current.Status), domain.ErrSameSnapshot)
	}
	for _, t := range []*entity.CountTask{current, previous} {
		if t.Status != entity.CountStatusCompleted {
			return domain.NewTaskError(t.CountID, string(t.Status), domain.ErrSnapshotNotCompleted)
		}
		for _, it := range t.Items {
			if it.ActualQuantity == nil || strings.TrimSpace(it.Category) == "" || strings.TrimSpace(it.StorageArea) == "" {
				return domain.NewTaskError(t.CountID, string(t.Status), domain.ErrInvalidSnapshot)
			}
		}
	}
	return nil
}

// Diff devuelve los registros de cambio de previous a current ordenados por product_id.
// Los productos sin cambio no generan registro.
func (e *Engine) Diff(ctx context.Context, current, previous *entity.CountTask) ([]entity.ChangeRecord, error) {
	if err := CheckSnapshots(current, previous); err != nil {
		return nil, err
	}
	cur := indexItems(current)
	prev := indexItems(previous)
	ids := unionIDs(cur, prev)

	if len(ids) <= e.chunkSize || e.workers <= 1 {
		return diffIDs(ids, cur, prev), nil
	}

	chunks := splitIDs(ids, e.chunkSize)
	results := make([][]entity.ChangeRecord, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = diffIDs(chunk, cur, prev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]entity.ChangeRecord, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// UnionSize cantidad de productos distintos entre ambos conteos.
func UnionSize(current, previous *entity.CountTask) int {
	return len(unionIDs(indexItems(current), indexItems(previous)))
}

func indexItems(t *entity.CountTask) map[string]entity.CountItem {
	m := make(map[string]entity.CountItem, len(t.Items))
	for _, it := range t.Items {
		m[it.ProductID] = it
	}
	return m
}

func unionIDs(a, b map[string]entity.CountItem) []string {
	ids := make([]string, 0, len(a)+len(b))
	for id := range a {
		ids = append(ids, id)
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return lessProductID(ids[i], ids[j]) })
	return ids
}

// lessProductID orden natural: ids numéricos por valor y antes que los no numéricos,
// el resto por bytes. Es un orden total, así que la salida es reproducible.
func lessProductID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

func splitIDs(ids []string, size int) [][]string {
	chunks := make([][]string, 0, len(ids)/size+1)
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// diffIDs arma los registros de ids. Un producto presente en un solo conteo con
// cantidad 0 no cambió y se omite, igual que los que tienen cambio cero.
func diffIDs(ids []string, cur, prev map[string]entity.CountItem) []entity.ChangeRecord {
	out := make([]entity.ChangeRecord, 0)
	for _, id := range ids {
		c, inCur := cur[id]
		p, inPrev := prev[id]
		switch {
		case inCur && inPrev:
			if rec, changed := changedRecord(c, p); changed {
				out = append(out, rec)
			}
		case inCur:
			q := *c.ActualQuantity
			if q == 0 {
				continue
			}
			rec := baseRecord(c)
			rec.CurrentQuantity = intPtr(q)
			rec.QuantityChange = q
			rec.Status = entity.ChangeNew
			rec.ValueChange = decimal.NewFromInt(int64(q)).Mul(c.UnitPrice)
			out = append(out, rec)
		default:
			q := *p.ActualQuantity
			if q == 0 {
				continue
			}
			rec := baseRecord(p)
			rec.PreviousQuantity = intPtr(q)
			rec.QuantityChange = -q
			rec.Status = entity.ChangeRemoved
			rec.ValueChange = decimal.NewFromInt(int64(-q)).Mul(p.UnitPrice)
			out = append(out, rec)
		}
	}
	return out
}

// changedRecord compara un producto presente en ambos conteos. Los metadatos
// capturados del conteo actual prevalecen.
func changedRecord(c, p entity.CountItem) (entity.ChangeRecord, bool) {
	curQ, prevQ := *c.ActualQuantity, *p.ActualQuantity
	change := curQ - prevQ
	if change == 0 {
		return entity.ChangeRecord{}, false
	}
	// Base cero: el porcentaje se fija en 0 por convención.
	pct := decimal.Zero
	if prevQ > 0 {
		pct = exactPercentage(change, prevQ).Round(2)
	}
	status := entity.ChangeDecreased
	if change > 0 {
		status = entity.ChangeIncreased
	}
	rec := baseRecord(c)
	rec.PreviousQuantity = intPtr(prevQ)
	rec.CurrentQuantity = intPtr(curQ)
	rec.QuantityChange = change
	rec.ChangePercentage = &pct
	rec.Status = status
	rec.ValueChange = decimal.NewFromInt(int64(change)).Mul(c.UnitPrice)
	return rec, true
}

func baseRecord(it entity.CountItem) entity.ChangeRecord {
	return entity.ChangeRecord{
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		Category:    it.Category,
		StorageArea: it.StorageArea,
		UnitPrice:   it.UnitPrice,
	}
}

// exactPercentage change/prev*100 sin redondear; prev debe ser > 0.
func exactPercentage(change, prev int) decimal.Decimal {
	return decimal.NewFromInt(int64(change)).
		Div(decimal.NewFromInt(int64(prev))).
		Mul(hundred)
}

func intPtr(v int) *int { return &v }

package stocktake

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// GroupKey extrae la clave de agrupación de un registro.
type GroupKey func(entity.ChangeRecord) string

// ByCategory agrupa por categoría capturada.
func ByCategory(r entity.ChangeRecord) string { return r.Category }

// ByStorageArea agrupa por ubicación capturada.
func ByStorageArea(r entity.ChangeRecord) string { return r.StorageArea }

// Aggregate agrupa records por key y calcula, por grupo: cantidad de productos,
// promedio del porcentaje de cambio (solo registros con porcentaje), tendencia y totales.
// Los grupos salen ordenados alfabéticamente con intercalación en español.
func Aggregate(records []entity.ChangeRecord, key GroupKey, deadBand decimal.Decimal) []entity.GroupAggregate {
	type acc struct {
		agg    entity.GroupAggregate
		pctSum decimal.Decimal
		pctN   int64
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		k := key(r)
		g, ok := groups[k]
		if !ok {
			g = &acc{agg: entity.GroupAggregate{Key: k}}
			groups[k] = g
		}
		g.agg.ProductCount++
		g.agg.TotalQuantityChange += r.QuantityChange
		g.agg.TotalValueChange = g.agg.TotalValueChange.Add(r.ValueChange)
		if r.IsAnomaly {
			g.agg.AnomalyCount++
		}
		if r.ChangePercentage != nil {
			g.pctSum = g.pctSum.Add(*r.ChangePercentage)
			g.pctN++
		}
	}

	out := make([]entity.GroupAggregate, 0, len(groups))
	for _, g := range groups {
		if g.pctN > 0 {
			avg := g.pctSum.Div(decimal.NewFromInt(g.pctN)).Round(2)
			g.agg.AverageChangePercentage = &avg
		}
		g.agg.Trend = TrendFor(g.agg.AverageChangePercentage, deadBand)
		out = append(out, g.agg)
	}
	sortGroups(out)
	return out
}

// TrendFor clasifica un promedio: growth si supera +band, decline si es menor que -band,
// stable en otro caso (incluido sin promedio).
func TrendFor(avg *decimal.Decimal, band decimal.Decimal) entity.Trend {
	switch {
	case avg == nil:
		return entity.TrendStable
	case avg.GreaterThan(band):
		return entity.TrendGrowth
	case avg.LessThan(band.Neg()):
		return entity.TrendDecline
	}
	return entity.TrendStable
}

// OverallTrend voto de mayoría entre las tendencias de los grupos.
// Empates en el primer lugar (o sin grupos) resultan en stable.
func OverallTrend(groups []entity.GroupAggregate) entity.Trend {
	votes := map[entity.Trend]int{}
	for _, g := range groups {
		votes[g.Trend]++
	}
	best, bestN, tie := entity.TrendStable, 0, false
	for _, t := range []entity.Trend{entity.TrendGrowth, entity.TrendDecline, entity.TrendStable} {
		switch n := votes[t]; {
		case n > bestN:
			best, bestN, tie = t, n, false
		case n == bestN && n > 0:
			tie = true
		}
	}
	if tie {
		return entity.TrendStable
	}
	return best
}

func sortGroups(groups []entity.GroupAggregate) {
	// collate.Collator no es seguro para uso concurrente: uno por llamada.
	col := collate.New(language.Spanish)
	sort.SliceStable(groups, func(i, j int) bool {
		if c := col.CompareString(groups[i].Key, groups[j].Key); c != 0 {
			return c < 0
		}
		return groups[i].Key < groups[j].Key
	})
}

package stocktake

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// ReportRenderer genera una representación de una comparación (xlsx, pdf, csv, md).
type ReportRenderer interface {
	Format() string
	ContentType() string
	Render(ctx context.Context, c *entity.Comparison) ([]byte, error)
}

// ExportUseCase exporta comparaciones guardadas con el renderizador del formato pedido.
type ExportUseCase struct {
	comparisons *ComparisonUseCase
	renderers   map[string]ReportRenderer
}

// NewExportUseCase construye el caso de uso con los renderizadores disponibles.
func NewExportUseCase(comparisons *ComparisonUseCase, renderers ...ReportRenderer) *ExportUseCase {
	m := make(map[string]ReportRenderer, len(renderers))
	for _, r := range renderers {
		m[r.Format()] = r
	}
	return &ExportUseCase{comparisons: comparisons, renderers: m}
}

// Formats formatos soportados, en orden alfabético.
func (uc *ExportUseCase) Formats() []string {
	out := make([]string, 0, len(uc.renderers))
	for f := range uc.renderers {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Export devuelve el documento, el nombre de archivo sugerido y su content type.
func (uc *ExportUseCase) Export(ctx context.Context, comparisonID, format string) (data []byte, filename, contentType string, err error) {
	r, ok := uc.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, "", "", fmt.Errorf("%w: formato %q no soportado (disponibles: %s)",
			domain.ErrInvalidInput, format, strings.Join(uc.Formats(), ", "))
	}
	c, err := uc.comparisons.GetReport(ctx, comparisonID)
	if err != nil {
		return nil, "", "", err
	}
	data, err = r.Render(ctx, c)
	if err != nil {
		return nil, "", "", fmt.Errorf("exportar %s: %w", r.Format(), err)
	}
	return data, fmt.Sprintf("comparacion-%s.%s", c.ComparisonID, r.Format()), r.ContentType(), nil
}

package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
)

// ErrNoAPIKey se devuelve cuando el proveedor no tiene clave configurada.
var ErrNoAPIKey = errors.New("AI: clave de API no configurada")

const (
	// maxPromptAnomalies tope de anomalías enviadas al modelo.
	maxPromptAnomalies = 25
	maxActions         = 5

	systemPrompt = `Eres un analista de inventarios. Recibes en JSON la comparación entre dos conteos físicos
de inventario (resumen, agregados por categoría y por ubicación, y las anomalías detectadas).
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin texto adicional) con esta estructura exacta:
{
  "headline": "<titular de una línea en español, máximo 120 caracteres>",
  "narrative": "<resumen en español de 2 a 4 frases: tendencia general, grupos destacados y anomalías severas>",
  "actions": ["<acción concreta sugerida>", "..."]
}

Reglas:
- Usa solo los datos recibidos; no inventes productos ni cifras.
- actions: entre 1 y 5 acciones, priorizando las anomalías severas.
- Los valores monetarios vienen en pesos; los porcentajes ya están calculados.`
)

// promptComparison vista compacta de la comparación que se envía al modelo.
type promptComparison struct {
	Type       string          `json:"type"`
	Summary    promptSummary   `json:"summary"`
	Categories []promptGroup   `json:"categories"`
	Areas      []promptGroup   `json:"storage_areas"`
	Anomalies  []promptAnomaly `json:"anomalies"`
	Omitted    int             `json:"anomalies_omitted,omitempty"`
}

type promptSummary struct {
	TotalProducts       int    `json:"total_products"`
	ProductsWithChanges int    `json:"products_with_changes"`
	SignificantChanges  int    `json:"significant_changes"`
	OverallTrend        string `json:"overall_trend"`
	TotalValueChange    string `json:"total_value_change"`
}

type promptGroup struct {
	Key           string  `json:"key"`
	AvgChangePct  *string `json:"average_change_percentage"`
	Trend         string  `json:"trend"`
	QuantityDelta int     `json:"quantity_change"`
	Anomalies     int     `json:"anomalies"`
}

type promptAnomaly struct {
	Product   string  `json:"product"`
	Category  string  `json:"category"`
	Area      string  `json:"storage_area"`
	Status    string  `json:"status"`
	Change    int     `json:"quantity_change"`
	ChangePct *string `json:"change_percentage"`
	Severity  string  `json:"severity"`
}

// insightPayload JSON que esperamos recibir del modelo.
type insightPayload struct {
	Headline  string   `json:"headline"`
	Narrative string   `json:"narrative"`
	Actions   []string `json:"actions"`
}

// buildUserPrompt serializa la comparación para el mensaje del usuario.
// Las anomalías severas van primero.
func buildUserPrompt(c *entity.Comparison) (string, error) {
	p := promptComparison{
		Type: string(c.Type),
		Summary: promptSummary{
			TotalProducts:       c.Summary.TotalProducts,
			ProductsWithChanges: c.Summary.ProductsWithChanges,
			SignificantChanges:  c.Summary.SignificantChanges,
			OverallTrend:        string(c.Summary.OverallTrend),
			TotalValueChange:    c.Summary.TotalValueChange.StringFixed(2),
		},
		Categories: groups(c.CategoryAggregates),
		Areas:      groups(c.StorageAggregates),
		Anomalies:  []promptAnomaly{},
	}

	anomalies := c.Anomalies()
	ordered := make([]entity.ChangeRecord, 0, len(anomalies))
	for _, r := range anomalies {
		if r.Severity == entity.SeveritySevere {
			ordered = append(ordered, r)
		}
	}
	for _, r := range anomalies {
		if r.Severity != entity.SeveritySevere {
			ordered = append(ordered, r)
		}
	}
	if len(ordered) > maxPromptAnomalies {
		p.Omitted = len(ordered) - maxPromptAnomalies
		ordered = ordered[:maxPromptAnomalies]
	}
	for _, r := range ordered {
		a := promptAnomaly{
			Product:  r.ProductName,
			Category: r.Category,
			Area:     r.StorageArea,
			Status:   string(r.Status),
			Change:   r.QuantityChange,
			Severity: string(r.Severity),
		}
		if r.ChangePercentage != nil {
			s := r.ChangePercentage.StringFixed(2)
			a.ChangePct = &s
		}
		p.Anomalies = append(p.Anomalies, a)
	}

	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("AI: serializar comparación: %w", err)
	}
	return "Comparación de conteos:\n" + string(b), nil
}

func groups(in []entity.GroupAggregate) []promptGroup {
	out := make([]promptGroup, 0, len(in))
	for _, g := range in {
		pg := promptGroup{
			Key:           g.Key,
			Trend:         string(g.Trend),
			QuantityDelta: g.TotalQuantityChange,
			Anomalies:     g.AnomalyCount,
		}
		if g.AverageChangePercentage != nil {
			s := g.AverageChangePercentage.StringFixed(2)
			pg.AvgChangePct = &s
		}
		out = append(out, pg)
	}
	return out
}

// parseInsight interpreta el texto del modelo y arma la respuesta.
func parseInsight(rawText, comparisonID, model string) (*dto.ComparisonInsightResponse, error) {
	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}
	var payload insightPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de la narrativa: %w (JSON extraído: %s)", err, cleanJSON)
	}
	if strings.TrimSpace(payload.Headline) == "" && strings.TrimSpace(payload.Narrative) == "" {
		return nil, fmt.Errorf("AI: el modelo devolvió una narrativa vacía")
	}

	actions := make([]string, 0, len(payload.Actions))
	for _, a := range payload.Actions {
		if a = strings.TrimSpace(a); a != "" {
			actions = append(actions, a)
		}
		if len(actions) == maxActions {
			break
		}
	}
	return &dto.ComparisonInsightResponse{
		ComparisonID: comparisonID,
		Headline:     strings.TrimSpace(payload.Headline),
		Narrative:    strings.TrimSpace(payload.Narrative),
		Actions:      actions,
		Model:        model,
	}, nil
}

// jsonBlockRe captura desde el primer '{' hasta el último '}'.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el objeto JSON de un texto libre aunque venga envuelto en
// un bloque de código markdown.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

package dto

// defaultLimit tamaño de página cuando no se indica limit.
const defaultLimit = 20

// PageRequest paginación de los listados de conteos y comparaciones (query ?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage completa limit ausente y corrige offset negativo.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	p.Offset = max(p.Offset, 0)
}

// Response metadatos de la página servida; count es la cantidad de elementos devueltos.
// HasMore indica que la página vino llena y puede haber más resultados.
func (p PageRequest) Response(count int) PageResponse {
	return PageResponse{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Count:   count,
		HasMore: count >= p.Limit,
	}
}

// PageResponse metadatos de página en respuestas de listado.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse cuerpo de error HTTP: código estable y mensaje legible.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

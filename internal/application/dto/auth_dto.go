package dto

// LoginRequest credenciales del administrador.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=120"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token de sesión.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"` // segundos
	Role      string `json:"role"`
}

package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/pkg/jwt"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

// AuthConfig credenciales del administrador y parámetros del token.
type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string // bcrypt
	JWTSecret         string
	JWTIssuer         string
	JWTExpMinutes     int
}

// AuthHandler maneja el login del administrador.
type AuthHandler struct {
	cfg AuthConfig
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(cfg AuthConfig, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{cfg: cfg, log: log}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	if h.cfg.AdminPasswordHash == "" || h.cfg.JWTSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "AUTH_DISABLED", Message: "credenciales de administrador no configuradas"})
	}

	userOK := subtle.ConstantTimeCompare([]byte(in.Username), []byte(h.cfg.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(in.Password))
	if !userOK || passErr != nil {
		h.log.Warn().Str("username", in.Username).Str("ip", c.IP()).Msg("login fallido")
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	}

	token, err := jwt.Generate(h.cfg.JWTSecret, in.Username, jwt.RoleAdmin, h.cfg.JWTIssuer, h.cfg.JWTExpMinutes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: h.cfg.JWTExpMinutes * 60,
		Role:      jwt.RoleAdmin,
	})
}

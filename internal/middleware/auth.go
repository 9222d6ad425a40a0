package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/models"
)

const authContextKey = "authContext"

// AuthMode tags how the caller proved its identity. Every downstream
// authorization decision that differs between the two modes must branch
// on this tag, never on ad hoc booleans.
type AuthMode int

const (
	// AuthToken means a bearer session token was resolved and expiry was
	// enforced. Ownership cross-checks apply.
	AuthToken AuthMode = iota
	// AuthEmail means the caller supplied a raw email and the session
	// layer was bypassed. Client-ownership checks are skipped in this
	// mode; only endpoints that explicitly accept it may use it.
	AuthEmail
)

// AuthContext carries the resolved user together with the mode it was
// resolved through.
type AuthContext struct {
	User models.User
	Mode AuthMode
}

// RequireSession validates the bearer session token and stores the
// resolved AuthContext in locals.
func RequireSession(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
		}

		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Token ausente no header Authorization.")
		}

		auth, err := ResolveSessionToken(db, token)
		if err != nil {
			return err
		}

		c.Locals(authContextKey, auth)
		return c.Next()
	}
}

// ResolveSessionToken resolves an AuthContext from a bearer session token,
// enforcing expiry and the session→user foreign key.
func ResolveSessionToken(db *gorm.DB, token string) (*AuthContext, error) {
	var session models.Session
	if err := db.Where("session_token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida ou inexistente.")
		}
		return nil, err
	}

	if session.ExpiresAt != nil && !session.ExpiresAt.After(time.Now()) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Sessão expirada. Faça login novamente.")
	}

	var user models.User
	if err := db.First(&user, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Usuário vinculado à sessão não foi encontrado. Solicite uma nova sessão.")
		}
		return nil, err
	}

	return &AuthContext{User: user, Mode: AuthToken}, nil
}

// ResolveEmail resolves an AuthContext directly from an email, bypassing
// the session layer entirely. Strictly weaker than token resolution.
func ResolveEmail(db *gorm.DB, email string) (*AuthContext, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Usuário não encontrado para o email informado.")
		}
		return nil, err
	}

	return &AuthContext{User: user, Mode: AuthEmail}, nil
}

// GetAuthContext extracts the AuthContext stored by RequireSession.
func GetAuthContext(c *fiber.Ctx) (*AuthContext, bool) {
	value := c.Locals(authContextKey)
	if value == nil {
		return nil, false
	}

	auth, ok := value.(*AuthContext)
	return auth, ok
}

// SessionForToken returns the raw session row for a token. Used by the
// session inspection endpoint, which reports token metadata back.
func SessionForToken(db *gorm.DB, token string) (*models.Session, error) {
	var session models.Session
	if err := db.Where("session_token = ?", token).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

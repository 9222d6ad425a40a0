package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/config"
	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/models"
	"github.com/example/sorelly/internal/services"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ResellerDirectory resolves reseller profiles from the external ERP.
type ResellerDirectory interface {
	FetchResellerByEmail(email string) (*services.ResellerProfile, error)
}

// AuthHandler bundles dependencies for the verification endpoints.
type AuthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	directory ResellerDirectory
	mailer    services.Mailer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, directory ResellerDirectory, mailer services.Mailer) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, directory: directory, mailer: mailer}
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify issues a verification code when called with an email only, and
// validates the code (minting a fresh session) when one is supplied.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "É necessário informar um email válido.")
	}

	profile, err := h.directory.FetchResellerByEmail(email)
	if err != nil {
		return internalError("Não foi possível processar a solicitação.", err)
	}

	if profile == nil {
		return fiber.NewError(fiber.StatusNotFound, "Nenhuma revendedora encontrada para o email informado.")
	}

	user, err := h.ensureUser(email, profile)
	if err != nil {
		return conflictError("Não foi possível sincronizar o usuário com a base de dados.", err)
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return h.issueCode(c, user)
	}

	return h.validateCode(c, user, code)
}

func (h *AuthHandler) issueCode(c *fiber.Ctx, user *models.User) error {
	code, err := generateVerificationCode()
	if err != nil {
		return internalError("Não foi possível gerar o código de verificação.", err)
	}

	verification := models.Verification{
		UserID:    user.ID,
		Token:     code,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	// Re-issuing always invalidates the previous code.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Verification{}).Error; err != nil {
			return err
		}
		return tx.Create(&verification).Error
	})
	if err != nil {
		return internalError("Não foi possível registrar o código de verificação.", err)
	}

	// The code is still issued when delivery fails; outside production it
	// is echoed back for manual use.
	if err := h.mailer.SendVerificationCode(c.UserContext(), user.Email, code); err != nil {
		log.Printf("[auth] falha ao enviar email de verificação para %s: %v", user.Email, err)
	}

	response := fiber.Map{
		"message": "Código enviado para o email informado.",
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	}

	if !h.cfg.IsProduction() {
		response["debug"] = fiber.Map{
			"code":      verification.Token,
			"expiresAt": verification.ExpiresAt,
		}
	}

	return c.JSON(response)
}

func (h *AuthHandler) validateCode(c *fiber.Ctx, user *models.User, code string) error {
	if !codePattern.MatchString(code) {
		return fiber.NewError(fiber.StatusBadRequest, "O código informado é inválido. Utilize 6 dígitos numéricos.")
	}

	var verification models.Verification
	err := h.db.Where("user_id = ? AND token = ?", user.ID, code).First(&verification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "Código inválido ou inexistente para este usuário.")
		}
		return err
	}

	if verification.ExpiresAt.Before(time.Now()) {
		// Expired codes are not retryable; a fresh issue is required.
		if err := h.db.Delete(&models.Verification{}, verification.ID).Error; err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusBadRequest, "Código expirado. Solicite um novo código.")
	}

	wasUnverified := !user.IsVerified

	var session models.Session
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if wasUnverified {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("is_verified", true).Error; err != nil {
				return err
			}
			user.IsVerified = true
		}

		// Single active session per user: replace every prior one.
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		session = models.Session{
			UserID:       user.ID,
			SessionToken: uuid.NewString(),
			ExpiresAt:    nil,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Verification{}, verification.ID).Error
	})
	if err != nil {
		return internalError("Não foi possível iniciar a sessão.", err)
	}

	message := "Código validado e nova sessão iniciada com sucesso."
	if wasUnverified {
		message = "Conta verificada e sessão iniciada com sucesso."
	}

	return c.JSON(fiber.Map{
		"message": message,
		"user":    user,
		"session": fiber.Map{
			"token":     session.SessionToken,
			"expiresAt": session.ExpiresAt,
		},
	})
}

type sessionRequest struct {
	SessionToken string `json:"sessionToken"`
	Email        string `json:"email"`
}

// Session resolves and validates an existing session token, or explains
// why sessions cannot be created from an email alone.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	token := strings.TrimSpace(req.SessionToken)
	email := strings.TrimSpace(req.Email)

	if token == "" && email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um sessionToken válido ou o email para buscar a sessão.")
	}

	if token != "" {
		auth, err := middleware.ResolveSessionToken(h.db, token)
		if err != nil {
			return err
		}

		session, err := middleware.SessionForToken(h.db, token)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"message": "Sessão válida.",
			"user":    auth.User,
			"session": fiber.Map{
				"token":     session.SessionToken,
				"expiresAt": session.ExpiresAt,
				"createdAt": session.CreatedAt,
			},
		})
	}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Usuário não encontrado para o email informado.")
		}
		return err
	}

	return fiber.NewError(fiber.StatusForbidden, "Sessões são criadas automaticamente após validar o código. Solicite um novo código caso precise acessar novamente.")
}

// ensureUser upserts the local user from the external reseller profile,
// keyed by the external numeric id. The name is refreshed when the
// directory reports a different one.
func (h *AuthHandler) ensureUser(email string, profile *services.ResellerProfile) (*models.User, error) {
	name := profile.Name
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}

	var user models.User
	err := h.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Name != name {
			if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).
				Update("name", name).Error; err != nil {
				return nil, err
			}
			user.Name = name
		}
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		ID:    profile.ID,
		Name:  name,
		Email: email,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

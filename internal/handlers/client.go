package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/models"
	"github.com/example/sorelly/internal/utils"
)

// ClientHandler manages the per-reseller client registry.
type ClientHandler struct {
	db *gorm.DB
}

// NewClientHandler constructs ClientHandler.
func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

// List returns every client owned by the authenticated reseller.
func (h *ClientHandler) List(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var clients []models.Client
	if err := h.db.Where("user_id = ?", auth.User.ID).Find(&clients).Error; err != nil {
		return internalError("Não foi possível listar os clientes.", err)
	}

	return c.JSON(fiber.Map{"clients": clients})
}

// Get returns a single client, enforcing ownership.
func (h *ClientHandler) Get(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	clientID, ok := parseRouteID(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o cliente.")
	}

	var client models.Client
	err := h.db.Where("id = ? AND user_id = ?", clientID, auth.User.ID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado.")
		}
		return internalError("Não foi possível buscar o cliente.", err)
	}

	return c.JSON(fiber.Map{"client": client})
}

type createClientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Create registers a client and derives its WhatsApp deep link from the
// digits of the phone number.
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var req createClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)

	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um nome válido para o cliente.")
	}

	if phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um telefone válido para o cliente.")
	}

	digits := utils.DigitsOnly(phone)
	if digits == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um telefone utilizando ao menos um dígito numérico válido.")
	}

	client := models.Client{
		UserID:   auth.User.ID,
		Name:     name,
		Phone:    phone,
		WhatsApp: "https://wa.me/" + digits,
	}

	if err := h.db.Create(&client).Error; err != nil {
		return internalError("Não foi possível cadastrar o cliente.", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Cliente cadastrado com sucesso.",
		"client":  client,
	})
}

type updateClientRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// Update applies a partial {name, phone} update; at least one field is
// required, and a phone change re-derives the WhatsApp link.
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	clientID, ok := parseRouteID(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o cliente.")
	}

	var req updateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	updates := map[string]interface{}{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Informe um nome válido para atualizar o cliente.")
		}
		updates["name"] = name
	}

	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Informe um telefone válido para atualizar o cliente.")
		}

		digits := utils.DigitsOnly(phone)
		if digits == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Informe um telefone utilizando ao menos um dígito numérico válido.")
		}

		updates["phone"] = phone
		updates["whats_app"] = "https://wa.me/" + digits
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Informe ao menos um campo (nome ou telefone) para atualizar o cliente.")
	}
	updates["updated_at"] = time.Now()

	result := h.db.Model(&models.Client{}).
		Where("id = ? AND user_id = ?", clientID, auth.User.ID).
		Updates(updates)
	if result.Error != nil {
		return internalError("Não foi possível atualizar o cliente.", result.Error)
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado.")
	}

	var client models.Client
	if err := h.db.First(&client, "id = ?", clientID).Error; err != nil {
		return internalError("Não foi possível atualizar o cliente.", err)
	}

	return c.JSON(fiber.Map{
		"message": "Cliente atualizado com sucesso.",
		"client":  client,
	})
}

// Delete removes a client. Ownership is enforced here as on every other
// client operation.
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	clientID, ok := parseRouteID(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o cliente.")
	}

	result := h.db.Where("id = ? AND user_id = ?", clientID, auth.User.ID).Delete(&models.Client{})
	if result.Error != nil {
		return internalError("Não foi possível remover o cliente.", result.Error)
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado.")
	}

	return c.JSON(fiber.Map{"message": "Cliente removido com sucesso."})
}

func parseRouteID(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

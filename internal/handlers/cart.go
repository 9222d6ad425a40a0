package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/models"
	"github.com/example/sorelly/internal/utils"
)

// CartHandler persists cart submission events.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

type cartResponse struct {
	ID        int            `json:"id"`
	ClientID  int            `json:"clientId"`
	Product   datatypes.JSON `json:"product"`
	Variation datatypes.JSON `json:"variation"`
	Client    datatypes.JSON `json:"client"`
	Quantity  int            `json:"quantity"`
	Total     string         `json:"total"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// List returns every cart row belonging to the reseller's clients,
// newest first.
func (h *CartHandler) List(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var carts []models.Cart
	err := h.db.
		Select("carts.*").
		Joins("JOIN clients ON clients.id = carts.client_id").
		Where("clients.user_id = ?", auth.User.ID).
		Order("carts.created_at DESC").
		Find(&carts).Error
	if err != nil {
		return internalError("Não foi possível listar os produtos no carrinho.", err)
	}

	formatted := make([]cartResponse, 0, len(carts))
	for _, cart := range carts {
		formatted = append(formatted, formatCart(cart))
	}

	return c.JSON(fiber.Map{"carts": formatted})
}

type cartRequest struct {
	Email     string         `json:"email"`
	ClientID  any            `json:"clientId"`
	Product   map[string]any `json:"product"`
	Variation map[string]any `json:"variation"`
	Client    map[string]any `json:"client"`
	Quantity  any            `json:"quantity"`
	Total     any            `json:"total"`
}

// Submit inserts a single cart row. Two identity modes are accepted: a
// bearer session token, or a raw email in the body. In email mode the
// client-ownership checks are deliberately skipped (the caller lives in a
// different identity space); the AuthContext mode keeps that relaxation
// explicit.
func (h *CartHandler) Submit(c *fiber.Ctx) error {
	var req cartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	auth, err := h.resolveAuth(c, strings.TrimSpace(req.Email))
	if err != nil {
		return err
	}

	if req.Product == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Informe os dados do produto no formato esperado.")
	}

	if req.Variation == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Informe os dados da variação do produto no formato esperado.")
	}

	if req.Client == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Informe os dados do cliente no formato esperado.")
	}

	// In token mode the payload's embedded owner must match the caller.
	if auth.Mode == middleware.AuthToken {
		if payloadUserID, ok := utils.ParseInteger(req.Client["userId"]); ok && payloadUserID != auth.User.ID {
			return fiber.NewError(fiber.StatusBadRequest, "Dados do cliente não correspondem ao usuário autenticado.")
		}
	}

	clientID, hasClientID := utils.ParseInteger(req.ClientID)
	payloadClientID, hasPayloadClientID := utils.ParseInteger(req.Client["id"])
	if !hasPayloadClientID {
		payloadClientID, hasPayloadClientID = utils.ParseInteger(req.Client["clienteId"])
	}

	if !hasClientID {
		clientID, hasClientID = payloadClientID, hasPayloadClientID
	}

	if !hasClientID || clientID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o cliente.")
	}

	if hasPayloadClientID && payloadClientID != clientID {
		return fiber.NewError(fiber.StatusBadRequest, "Identificador do cliente informado não corresponde ao payload enviado.")
	}

	quantity, ok := utils.ParseInteger(req.Quantity)
	if !ok || quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Informe uma quantidade válida para o produto no carrinho.")
	}

	totalValue, ok := utils.ParseCurrency(req.Total)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um valor total válido para o item no carrinho.")
	}

	if totalValue < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "O valor total do item deve ser maior ou igual a zero.")
	}

	clientQuery := h.db.Model(&models.Client{}).Where("id = ?", clientID)
	if auth.Mode == middleware.AuthToken {
		clientQuery = clientQuery.Where("user_id = ?", auth.User.ID)
	}

	var client models.Client
	if err := clientQuery.First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if auth.Mode == middleware.AuthToken {
				return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado ou não pertence ao usuário autenticado.")
			}
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado.")
		}
		return internalError("Não foi possível adicionar o produto ao carrinho.", err)
	}

	product, err := marshalJSON(req.Product)
	if err != nil {
		return internalError("Não foi possível adicionar o produto ao carrinho.", err)
	}
	variation, err := marshalJSON(req.Variation)
	if err != nil {
		return internalError("Não foi possível adicionar o produto ao carrinho.", err)
	}
	clientPayload, err := marshalJSON(req.Client)
	if err != nil {
		return internalError("Não foi possível adicionar o produto ao carrinho.", err)
	}

	cart := models.Cart{
		ClientID:  clientID,
		Product:   product,
		Variation: variation,
		Client:    clientPayload,
		Quantity:  quantity,
		Total:     utils.FormatAmount(totalValue),
	}

	if err := h.db.Create(&cart).Error; err != nil {
		return internalError("Não foi possível adicionar o produto ao carrinho.", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Produto adicionado ao carrinho com sucesso.",
		"cart":    formatCart(cart),
	})
}

// resolveAuth picks the identity mode for a cart submission: bearer token
// when present, body email otherwise.
func (h *CartHandler) resolveAuth(c *fiber.Ctx, email string) (*middleware.AuthContext, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
		}

		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token == "" {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Token ausente no header Authorization.")
		}

		return middleware.ResolveSessionToken(h.db, token)
	}

	if email == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization ou um email válido.")
	}

	return middleware.ResolveEmail(h.db, email)
}

func formatCart(cart models.Cart) cartResponse {
	return cartResponse{
		ID:        cart.ID,
		ClientID:  cart.ClientID,
		Product:   cart.Product,
		Variation: cart.Variation,
		Client:    cart.Client,
		Quantity:  cart.Quantity,
		Total:     utils.FormatCurrency(cart.Total),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func marshalJSON(value map[string]any) (datatypes.JSON, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

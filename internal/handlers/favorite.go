package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/models"
)

// FavoriteHandler manages product bookmarks.
type FavoriteHandler struct {
	db *gorm.DB
}

// NewFavoriteHandler constructs FavoriteHandler.
func NewFavoriteHandler(db *gorm.DB) *FavoriteHandler {
	return &FavoriteHandler{db: db}
}

// List returns the user's favorited product ids as a comma-joined
// string, newest first.
func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var favorites []models.Favorite
	err := h.db.Where("user_id = ?", auth.User.ID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return internalError("Não foi possível listar os favoritos.", err)
	}

	productIDs := make([]string, 0, len(favorites))
	for _, favorite := range favorites {
		if trimmed := strings.TrimSpace(favorite.ProductID); trimmed != "" {
			productIDs = append(productIDs, trimmed)
		}
	}

	return c.JSON(fiber.Map{"favoritos": strings.Join(productIDs, ",")})
}

type favoriteRequest struct {
	ProductID any `json:"productId"`
	ProdutoID any `json:"produtoId"`
	ID        any `json:"id"`
}

// Add bookmarks a product. Adding an already-favorited product is a
// success without inserting a duplicate.
func (h *FavoriteHandler) Add(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var req favoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	productID, ok := parseProductIdentifier(req.ProductID, req.ProdutoID, req.ID)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o produto.")
	}

	var existing models.Favorite
	err := h.db.Where("user_id = ? AND product_id = ?", auth.User.ID, productID).
		First(&existing).Error
	if err == nil {
		return c.JSON(fiber.Map{
			"message":  "Produto já está favoritado.",
			"favorito": fiber.Map{"productId": productID},
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError("Não foi possível adicionar o produto aos favoritos.", err)
	}

	favorite := models.Favorite{
		UserID:    auth.User.ID,
		ProductID: productID,
	}
	if err := h.db.Create(&favorite).Error; err != nil {
		return internalError("Não foi possível adicionar o produto aos favoritos.", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Produto adicionado aos favoritos com sucesso.",
		"favorito": fiber.Map{
			"id":        favorite.ID,
			"productId": favorite.ProductID,
			"createdAt": favorite.CreatedAt,
			"updatedAt": favorite.UpdatedAt,
		},
	})
}

// Remove deletes a bookmark; a missing row is reported as a no-op.
func (h *FavoriteHandler) Remove(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var req favoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	productID, ok := parseProductIdentifier(req.ProductID, req.ProdutoID, req.ID)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o produto.")
	}

	result := h.db.Where("user_id = ? AND product_id = ?", auth.User.ID, productID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return internalError("Não foi possível remover o produto dos favoritos.", result.Error)
	}

	if result.RowsAffected == 0 {
		return c.JSON(fiber.Map{"message": "Produto não estava na lista de favoritos."})
	}

	return c.JSON(fiber.Map{"message": "Produto removido dos favoritos com sucesso."})
}

// parseProductIdentifier accepts the first usable candidate: numbers are
// stringified, strings are trimmed.
func parseProductIdentifier(candidates ...any) (string, bool) {
	for _, candidate := range candidates {
		switch v := candidate.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/services"
)

// CatalogHandler proxies product reads to the devmaster ERP API,
// injecting the server-side token and scoping paths to the caller.
type CatalogHandler struct {
	devmaster *services.DevmasterService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(devmaster *services.DevmasterService) *CatalogHandler {
	return &CatalogHandler{devmaster: devmaster}
}

// ListProducts relays the reseller's product catalog.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	path := fmt.Sprintf("appsorelly/%d/produtos", auth.User.ID)
	return h.relay(c, path)
}

// GetProduct relays a single product lookup.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	productID := strings.TrimSpace(c.Params("id"))
	if productID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador válido para o produto.")
	}

	path := fmt.Sprintf("appsorelly/%d/produtos/%s", auth.User.ID, productID)
	return h.relay(c, path)
}

func (h *CatalogHandler) relay(c *fiber.Ctx, path string) error {
	query := make(map[string]string, len(c.Queries()))
	for k, v := range c.Queries() {
		query[k] = v
	}

	resp, err := h.devmaster.Get(path, query)
	if err != nil {
		return &apiError{
			Status:  fiber.StatusBadGateway,
			Message: "Não foi possível consultar o catálogo de produtos.",
			Details: err.Error(),
		}
	}

	c.Status(resp.Status)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Set("Content-Type", ct)
	}

	return c.Send(resp.Body)
}

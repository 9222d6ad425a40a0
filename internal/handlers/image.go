package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ImageProxyHandler relays product images from the single allow-listed
// upstream, working around mixed-content restrictions in the storefront.
type ImageProxyHandler struct {
	allowedPrefix string
	client        *http.Client
}

// NewImageProxyHandler constructs ImageProxyHandler.
func NewImageProxyHandler(allowedPrefix string) *ImageProxyHandler {
	return &ImageProxyHandler{
		allowedPrefix: allowedPrefix,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// Proxy fetches and relays an image. Only URLs under the allow-listed
// host+path prefix are accepted; the prefix pins the http scheme.
func (h *ImageProxyHandler) Proxy(c *fiber.Ctx) error {
	imageURL := c.Query("url")
	if imageURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "URL da imagem não fornecida.")
	}

	if !strings.HasPrefix(imageURL, h.allowedPrefix) {
		return fiber.NewError(fiber.StatusForbidden, "Domínio não autorizado.")
	}

	resp, err := h.client.Get(imageURL)
	if err != nil {
		return internalError("Erro ao processar imagem.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fiber.NewError(resp.StatusCode, "Erro ao buscar imagem.")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return internalError("Erro ao processar imagem.", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.Set("Content-Type", contentType)
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Send(body)
}

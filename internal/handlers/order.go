package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/sorelly/internal/middleware"
	"github.com/example/sorelly/internal/models"
	"github.com/example/sorelly/internal/utils"
)

// OrderHandler manages the order lifecycle.
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

type orderItemRequest struct {
	ProdutoID any             `json:"produtoId"`
	Unidades  any             `json:"unidades"`
	Valor     any             `json:"valor"`
	Variante  any             `json:"variante"`
	Descricao string          `json:"descricao"`
	Imagem    json.RawMessage `json:"imagem"`
}

type createOrderRequest struct {
	ClienteID any                `json:"clienteId"`
	Produtos  []orderItemRequest `json:"produtos"`
}

type parsedOrderItem struct {
	productID   int
	quantity    int
	unitValue   float64
	variantID   *int
	description *string
	image       datatypes.JSON
}

// Create validates every product line up front and then, in a single
// serializable transaction, allocates the next per-client order number
// and inserts the order with its items. The isolation level serializes
// concurrent placements for the same client so numbers stay contiguous.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Payload inválido. Envie um objeto JSON.")
	}

	clientID, ok := utils.ParseInteger(req.ClienteID)
	if !ok || clientID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um cliente válido (clienteId numérico).")
	}

	var client models.Client
	err := h.db.Where("id = ? AND user_id = ?", clientID, auth.User.ID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado para o usuário autenticado.")
		}
		return internalError("Não foi possível registrar o pedido.", err)
	}

	if len(req.Produtos) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Informe ao menos um produto para registrar o pedido.")
	}

	parsedItems := make([]parsedOrderItem, 0, len(req.Produtos))
	for index, raw := range req.Produtos {
		item, err := parseOrderItem(index, raw)
		if err != nil {
			return err
		}
		parsedItems = append(parsedItems, item)
	}

	var order models.Order
	var items []models.OrderItem

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		err := tx.Model(&models.Order{}).
			Where("client_id = ?", clientID).
			Select("COALESCE(MAX(order_number), 0)").
			Scan(&maxNumber).Error
		if err != nil {
			return err
		}

		order = models.Order{
			ClientID:    clientID,
			ClientName:  client.Name,
			OrderNumber: maxNumber + 1,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		items = make([]models.OrderItem, 0, len(parsedItems))
		for _, item := range parsedItems {
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ClientName:  client.Name,
				ProductID:   item.productID,
				Image:       item.image,
				Quantity:    item.quantity,
				VariantID:   item.variantID,
				UnitValue:   utils.FormatAmount(item.unitValue),
				Description: item.description,
			})
		}

		return tx.Create(&items).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return internalError("Não foi possível registrar o pedido.", err)
	}

	var totalValue float64
	for _, item := range parsedItems {
		totalValue += item.unitValue * float64(item.quantity)
	}

	formattedItems := make([]fiber.Map, 0, len(items))
	for i, item := range items {
		formattedItems = append(formattedItems, fiber.Map{
			"id":            item.ID,
			"produtoId":     item.ProductID,
			"quantidade":    item.Quantity,
			"valorUnitario": utils.FormatAmount(parsedItems[i].unitValue),
			"variante":      item.VariantID,
			"descricao":     item.Description,
			"imagem":        item.Image,
			"createdAt":     item.CreatedAt,
			"updatedAt":     item.UpdatedAt,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Pedido registrado com sucesso.",
		"pedido": fiber.Map{
			"id":            order.ID,
			"clientId":      order.ClientID,
			"clientName":    order.ClientName,
			"numero_pedido": order.OrderNumber,
			"isCanceled":    order.IsCanceled,
			"createdAt":     order.CreatedAt,
			"updatedAt":     order.UpdatedAt,
			"valor":         utils.FormatAmount(totalValue),
			"itens":         formattedItems,
		},
	})
}

func parseOrderItem(index int, raw orderItemRequest) (parsedOrderItem, error) {
	var item parsedOrderItem

	productID, ok := utils.ParseInteger(raw.ProdutoID)
	if !ok || productID <= 0 {
		return item, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Produto na posição %d sem identificador numérico válido (produtoId).", index))
	}

	quantity, ok := utils.ParseInteger(raw.Unidades)
	if !ok || quantity <= 0 {
		return item, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Produto na posição %d com quantidade inválida (unidades).", index))
	}

	value, ok := utils.ParseCurrency(raw.Valor)
	if !ok {
		return item, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Produto na posição %d com valor inválido.", index))
	}

	if raw.Variante != nil {
		if variantID, ok := utils.ParseInteger(raw.Variante); ok {
			item.variantID = &variantID
		}
	}

	if description := strings.TrimSpace(raw.Descricao); description != "" {
		item.description = &description
	}

	if len(raw.Imagem) > 0 && string(raw.Imagem) != "null" {
		item.image = datatypes.JSON(raw.Imagem)
	}

	item.productID = productID
	item.quantity = quantity
	item.unitValue = value
	return item, nil
}

type orderListRow struct {
	OrderID     int
	ClientID    int
	ClientName  string
	OrderNumber int
	IsCanceled  bool
	CreatedAt   time.Time
	TotalValue  float64
}

// List returns the reseller's orders with per-order totals, plus count
// and summed value aggregated over non-canceled orders only.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	var rows []orderListRow
	err := h.db.Table("orders").
		Select("orders.id AS order_id, orders.client_id, orders.client_name, orders.order_number, orders.is_canceled, orders.created_at, COALESCE(SUM(order_items.unit_value * order_items.quantity), 0) AS total_value").
		Joins("JOIN clients ON clients.id = orders.client_id").
		Joins("LEFT JOIN order_items ON order_items.order_id = orders.id").
		Where("clients.user_id = ?", auth.User.ID).
		Group("orders.id, orders.client_id, orders.client_name, orders.order_number, orders.is_canceled, orders.created_at").
		Order("orders.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return internalError("Não foi possível listar os pedidos.", err)
	}

	activeCount := 0
	activeTotal := 0.0
	formatted := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		if !row.IsCanceled {
			activeCount++
			activeTotal += row.TotalValue
		}

		formatted = append(formatted, fiber.Map{
			"orderId":       row.OrderID,
			"clientId":      row.ClientID,
			"clientName":    row.ClientName,
			"numero_pedido": row.OrderNumber,
			"isCanceled":    row.IsCanceled,
			"valor":         utils.FormatAmount(row.TotalValue),
			"data":          row.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"pedidos":    formatted,
		"total":      activeCount,
		"valorTotal": utils.FormatAmount(activeTotal),
	})
}

// Get returns a single order with its client snapshot and items.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	orderID, ok := parseRouteID(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador de pedido válido.")
	}

	order, err := h.findOwnedOrder(orderID, auth.User.ID)
	if err != nil {
		return err
	}

	var client models.Client
	if err := h.db.First(&client, "id = ?", order.ClientID).Error; err != nil {
		return internalError("Não foi possível buscar o pedido.", err)
	}

	var items []models.OrderItem
	if err := h.db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return internalError("Não foi possível buscar o pedido.", err)
	}

	var totalValue float64
	formattedItems := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		unitValue := utils.FormatCurrency(item.UnitValue)
		if numeric, ok := utils.ParseCurrency(unitValue); ok {
			totalValue += numeric * float64(item.Quantity)
		}

		formattedItems = append(formattedItems, fiber.Map{
			"id":            item.ID,
			"produtoId":     item.ProductID,
			"quantidade":    item.Quantity,
			"variante":      item.VariantID,
			"valorUnitario": unitValue,
			"descricao":     item.Description,
			"imagem":        item.Image,
			"createdAt":     item.CreatedAt,
			"updatedAt":     item.UpdatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"pedido": fiber.Map{
			"id":            order.ID,
			"clientId":      order.ClientID,
			"numero_pedido": order.OrderNumber,
			"isCanceled":    order.IsCanceled,
			"valor":         utils.FormatAmount(totalValue),
			"createdAt":     order.CreatedAt,
			"updatedAt":     order.UpdatedAt,
			"cliente": fiber.Map{
				"id":       client.ID,
				"nome":     order.ClientName,
				"telefone": client.Phone,
				"whatsApp": client.WhatsApp,
			},
			"itens": formattedItems,
		},
	})
}

// Restore flips a canceled order back to active. Restoring an already
// active order is a no-op that reports success without touching the row.
func (h *OrderHandler) Restore(c *fiber.Ctx) error {
	return h.setCanceled(c, false)
}

// Cancel flips an active order to canceled, symmetric to Restore.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	return h.setCanceled(c, true)
}

func (h *OrderHandler) setCanceled(c *fiber.Ctx, canceled bool) error {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida. Informe o token no header Authorization.")
	}

	orderID, ok := parseRouteID(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Informe um identificador de pedido válido.")
	}

	order, err := h.findOwnedOrder(orderID, auth.User.ID)
	if err != nil {
		return err
	}

	if order.IsCanceled == canceled {
		if canceled {
			return c.JSON(fiber.Map{"message": "Pedido já está cancelado."})
		}
		return c.JSON(fiber.Map{"message": "Pedido já está ativo."})
	}

	updates := map[string]interface{}{
		"is_canceled": canceled,
		"updated_at":  time.Now(),
	}
	if err := h.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		if canceled {
			return internalError("Não foi possível cancelar o pedido.", err)
		}
		return internalError("Não foi possível reativar o pedido.", err)
	}

	var updated models.Order
	if err := h.db.First(&updated, "id = ?", order.ID).Error; err != nil {
		return internalError("Não foi possível buscar o pedido.", err)
	}

	message := "Pedido reativado com sucesso."
	if canceled {
		message = "Pedido cancelado com sucesso."
	}

	return c.JSON(fiber.Map{
		"message": message,
		"pedido": fiber.Map{
			"id":            updated.ID,
			"clientId":      updated.ClientID,
			"numero_pedido": updated.OrderNumber,
			"isCanceled":    updated.IsCanceled,
			"createdAt":     updated.CreatedAt,
			"updatedAt":     updated.UpdatedAt,
		},
	})
}

func (h *OrderHandler) findOwnedOrder(orderID, userID int) (*models.Order, error) {
	var order models.Order
	err := h.db.
		Select("orders.*").
		Joins("JOIN clients ON clients.id = orders.client_id").
		Where("orders.id = ? AND clients.user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Pedido não encontrado para o usuário autenticado.")
		}
		return nil, internalError("Não foi possível buscar o pedido.", err)
	}
	return &order, nil
}

package models

import "gorm.io/datatypes"

// Order groups the items of a single placed order. OrderNumber is
// sequential per client, allocated inside the placement transaction.
type Order struct {
	BaseModel
	ClientID    int         `gorm:"index" json:"clientId"`
	Client      *Client     `gorm:"constraint:OnDelete:CASCADE" json:"client,omitempty"`
	ClientName  string      `json:"clientName"`
	OrderNumber int         `json:"orderNumber"`
	IsCanceled  bool        `gorm:"default:false" json:"isCanceled"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderItem is one product line of an order, created in bulk alongside it.
type OrderItem struct {
	BaseModel
	OrderID     int            `gorm:"index" json:"orderId"`
	Order       *Order         `gorm:"constraint:OnDelete:CASCADE" json:"order,omitempty"`
	ClientName  string         `json:"clientName"`
	ProductID   int            `json:"productId"`
	Image       datatypes.JSON `json:"image"`
	Quantity    int            `json:"quantity"`
	VariantID   *int           `json:"variantId"`
	UnitValue   string         `gorm:"type:numeric(12,2)" json:"unitValue"`
	Description *string        `json:"description"`
}

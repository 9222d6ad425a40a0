package models

import "gorm.io/datatypes"

// Cart is one persisted submission of a single product line for a client.
// It is append-only: the shopping UI keeps its own ephemeral cart and
// reconciles it into independent rows at checkout.
type Cart struct {
	BaseModel
	ClientID  int            `gorm:"index" json:"clientId"`
	Product   datatypes.JSON `json:"product"`
	Variation datatypes.JSON `json:"variation"`
	Client    datatypes.JSON `gorm:"column:client" json:"client"`
	Quantity  int            `gorm:"default:1" json:"quantity"`
	Total     string         `gorm:"type:numeric(12,2)" json:"total"`
}

package models

// Client is a customer of a reseller. WhatsApp is derived from the phone
// number (digits only) whenever the phone is set or updated.
type Client struct {
	BaseModel
	UserID   int     `gorm:"index" json:"userId"`
	User     *User   `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	WhatsApp string  `json:"whatsApp"`
	Orders   []Order `gorm:"constraint:OnDelete:CASCADE" json:"orders,omitempty"`
	Carts    []Cart  `gorm:"constraint:OnDelete:CASCADE" json:"carts,omitempty"`
}

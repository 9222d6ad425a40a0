package models

// Favorite bookmarks a product id for a user. The (userId, productId)
// pair is unique; adds are idempotent at the handler level.
type Favorite struct {
	BaseModel
	UserID    int    `gorm:"index;uniqueIndex:idx_favorites_user_product" json:"userId"`
	User      *User  `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ProductID string `gorm:"uniqueIndex:idx_favorites_user_product" json:"productId"`
}

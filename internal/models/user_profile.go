package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile holds the participant details kept alongside an account.
type UserProfile struct {
	AccountID       string         `gorm:"primaryKey;type:uuid" json:"uid"`
	Account         *Account       `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	ChainID         *string        `gorm:"type:uuid;index" json:"chain_id"`
	Address         string         `json:"address"`
	Newsletter      bool           `gorm:"default:false" json:"newsletter"`
	InterestedSizes datatypes.JSON `json:"interested_sizes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName keeps the historical collection name.
func (UserProfile) TableName() string {
	return "users"
}

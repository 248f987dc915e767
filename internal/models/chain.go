package models

import "gorm.io/datatypes"

// Chain is a local clothing exchange loop administered by one account.
type Chain struct {
	BaseModel

	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Address     string         `json:"address"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Radius      float64        `json:"radius"`
	Categories  datatypes.JSON `json:"categories"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	ChainAdmin  string         `gorm:"type:uuid;index;not null" json:"chain_admin"`
}

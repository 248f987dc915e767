package models

// Account is the identity record for a participant. Role and ChainID are the
// claims consulted by every authorization decision.
type Account struct {
	BaseModel

	Email         string  `gorm:"uniqueIndex;not null;size:320" json:"email"`
	PhoneNumber   *string `gorm:"uniqueIndex;size:32" json:"phone_number"`
	DisplayName   string  `json:"display_name"`
	EmailVerified bool    `gorm:"default:false" json:"email_verified"`
	Disabled      bool    `gorm:"default:false" json:"disabled"`

	Role    string  `gorm:"size:16;index" json:"role"`
	ChainID *string `gorm:"type:uuid;index" json:"chain_id"`
}

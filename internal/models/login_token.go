package models

import "time"

// LoginToken stores the digest of a one-time login or verification link.
type LoginToken struct {
	BaseModel

	AccountID string     `gorm:"type:uuid;not null;index" json:"account_id"`
	TokenHash string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}

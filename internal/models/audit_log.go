package models

import "gorm.io/datatypes"

// AuditLog records a permission-relevant action and its outcome.
type AuditLog struct {
	BaseModel

	ActorID   *string        `gorm:"type:uuid;index" json:"actor_id"`
	Action    string         `gorm:"not null;index" json:"action"`
	Resource  string         `gorm:"index" json:"resource"`
	TargetID  string         `gorm:"size:64;index" json:"target_id,omitempty"`
	Result    string         `gorm:"not null" json:"result"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	Metadata  datatypes.JSON `json:"metadata"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Mail delivery states.
const (
	MailStatusPending = "pending"
	MailStatusSent    = "sent"
	MailStatusFailed  = "failed"
)

// Mail is an outbound message waiting in, or drained from, the mail queue.
type Mail struct {
	BaseModel

	Kind    string         `gorm:"size:64;index" json:"kind"`
	To      datatypes.JSON `gorm:"column:to_addresses;not null" json:"to"`
	ReplyTo string         `gorm:"size:320" json:"reply_to,omitempty"`
	Subject string         `gorm:"not null" json:"subject"`
	HTML    string         `gorm:"type:text" json:"html"`
	Status  string         `gorm:"size:16;not null;default:pending;index" json:"status"`
	Error   string         `json:"error,omitempty"`
	SentAt  *time.Time     `json:"sent_at,omitempty"`
}

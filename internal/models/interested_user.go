package models

// InterestedUser records a newsletter subscription from the public site.
type InterestedUser struct {
	BaseModel

	Name  string `json:"name"`
	Email string `gorm:"not null;index" json:"email"`
}

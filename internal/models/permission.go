package models

// Permission is an atomic capability named "resource:action". Wildcard
// segments ("admin:*", "*:*") are stored as ordinary rows so roles can grant
// them. Permissions are never hard-deleted; IsActive=false retires them.
type Permission struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null;size:128" json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Category    string `gorm:"index" json:"category"`
	Resource    string `gorm:"not null;index" json:"resource"`
	Action      string `gorm:"not null" json:"action"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}

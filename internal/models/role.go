package models

// Role bundles permissions under a unique name. Priority orders a user's
// roles when listed; it never influences permission resolution.
type Role struct {
	BaseModel

	Name        string  `gorm:"uniqueIndex;not null;size:128" json:"name"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description"`
	Priority    int     `gorm:"default:0;index" json:"priority"`
	CreatedBy   *string `gorm:"type:uuid" json:"created_by"`
	IsActive    bool    `gorm:"default:true" json:"is_active"`

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// PermissionNames returns the granted permission names in stored order.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, perm := range r.Permissions {
		names = append(names, perm.Name)
	}
	return names
}

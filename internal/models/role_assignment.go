package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleAssignment is one row of the append-only ledger linking a user to a
// role. Revocation flips IsActive and stamps RevokedAt; rows are never
// deleted or reactivated, so re-assignment inserts a fresh row.
//
// ActiveKey holds "user_id|role_id" while the assignment is active and NULL
// afterwards. Its unique index is the store-level guarantee that at most one
// active assignment exists per pair, including under concurrent writers.
type RoleAssignment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"type:uuid;not null;index:idx_role_assignments_user" json:"user_id"`
	RoleID string `gorm:"type:uuid;not null;index" json:"role_id"`
	Role   *Role  `gorm:"foreignKey:RoleID" json:"role,omitempty"`

	Reason     string  `json:"reason"`
	AssignedBy *string `gorm:"type:uuid" json:"assigned_by"`

	IsActive  bool    `gorm:"default:true;index" json:"is_active"`
	ActiveKey *string `gorm:"uniqueIndex;size:80" json:"-"`

	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	RevokedBy *string    `gorm:"type:uuid" json:"revoked_by"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (a *RoleAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// PairKey builds the ActiveKey value for an active (user, role) pair.
func PairKey(userID, roleID string) string {
	return userID + "|" + roleID
}

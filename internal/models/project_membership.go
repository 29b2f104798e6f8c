package models

import "gorm.io/gorm"

// ProjectMembership links a user into a project's member set. The owner is
// never written here; ownership lives on Project.OwnerID alone.
type ProjectMembership struct {
	gorm.Model

	UserID    uint `gorm:"not null;uniqueIndex:idx_user_project"`
	ProjectID uint `gorm:"not null;uniqueIndex:idx_user_project"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

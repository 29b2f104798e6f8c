package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	// OwnerID goes to zero if the owning user row is ever removed;
	// the policy package treats that as a corrupt owner reference.
	OwnerID uint `gorm:"index"`

	// Relationships
	Owner       User                `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Memberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks       []Task              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

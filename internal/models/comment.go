package models

import "gorm.io/gorm"

// Comments are immutable once created; they only go away when their task
// (or its project) is deleted.
type Comment struct {
	gorm.Model

	Text   string `gorm:"not null"`
	TaskID uint   `gorm:"not null;index"`
	UserID uint   `gorm:"index"`

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}

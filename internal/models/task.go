package models

import "gorm.io/gorm"

type Task struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	ProjectID   uint   `gorm:"not null;index"`
	Status      string `gorm:"not null;default:Todo"`
	Priority    string `gorm:"not null;default:Medium"`
	AssigneeID  *uint  `gorm:"index"`

	// Relationships
	Project  Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User     `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Comments []Comment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"uniqueIndex;not null;size:6"` // короткий код для приглашений
	Name      string    `gorm:"not null"`
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Связи
	Members []User `gorm:"many2many:group_members"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Block — направленное ребро: blocker больше не принимает сообщения от blocked.
type Block struct {
	BlockerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	BlockedID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

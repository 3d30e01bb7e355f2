package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind различает варианты полезной нагрузки
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindFile  MessageKind = "file"
	KindVoice MessageKind = "voice"
	KindVideo MessageKind = "video"
)

// Message адресовано либо пользователю (RecipientID), либо группе (GroupID),
// никогда обоим сразу.
type Message struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SenderID    uuid.UUID   `gorm:"not null;index"`
	RecipientID *uuid.UUID  `gorm:"index"`
	GroupID     *uuid.UUID  `gorm:"index"`
	Kind        MessageKind `gorm:"not null;default:'text'"`
	Content     string
	FileURL     string
	FileName    string
	FileSize    int64
	Duration    int // секунды, для voice/video
	Pinned      bool `gorm:"default:false"`
	Deleted     bool `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"index"`

	// Связи
	Sender User `gorm:"foreignKey:SenderID"`
}

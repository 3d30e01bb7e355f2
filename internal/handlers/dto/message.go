package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/models"
)

// SendMessageRequest: заполняется строго одно из recipient_id/group_id
type SendMessageRequest struct {
	RecipientID *uuid.UUID         `json:"recipient_id,omitempty"`
	GroupID     *uuid.UUID         `json:"group_id,omitempty"`
	Kind        models.MessageKind `json:"kind,omitempty"`
	Content     string             `json:"content,omitempty"`
	FileURL     string             `json:"file_url,omitempty"`
	FileName    string             `json:"file_name,omitempty"`
	FileSize    int64              `json:"file_size,omitempty"`
	Duration    int                `json:"duration,omitempty"`
}

type PinMessageRequest struct {
	MessageID uuid.UUID `json:"message_id" binding:"required"`
	Pinned    *bool     `json:"pinned" binding:"required"`
}

type DeleteMessageRequest struct {
	MessageID uuid.UUID `json:"message_id" binding:"required"`
}

// MessageResponse — представление сообщения в HTTP-ответах
type MessageResponse struct {
	ID          uuid.UUID          `json:"id"`
	SenderID    uuid.UUID          `json:"sender_id"`
	Sender      string             `json:"sender,omitempty"`
	RecipientID *uuid.UUID         `json:"recipient_id,omitempty"`
	GroupID     *uuid.UUID         `json:"group_id,omitempty"`
	Kind        models.MessageKind `json:"kind"`
	Content     string             `json:"content,omitempty"`
	FileURL     string             `json:"file_url,omitempty"`
	FileName    string             `json:"file_name,omitempty"`
	FileSize    int64              `json:"file_size,omitempty"`
	Duration    int                `json:"duration,omitempty"`
	Pinned      bool               `json:"pinned"`
	CreatedAt   time.Time          `json:"created_at"`
}

func MessageResponseFrom(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		Sender:      m.Sender.Username,
		RecipientID: m.RecipientID,
		GroupID:     m.GroupID,
		Kind:        m.Kind,
		Content:     m.Content,
		FileURL:     m.FileURL,
		FileName:    m.FileName,
		FileSize:    m.FileSize,
		Duration:    m.Duration,
		Pinned:      m.Pinned,
		CreatedAt:   m.CreatedAt,
	}
}

package database

import (
	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/models"
)

func (d *Database) AppendMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// GetDirectMessages возвращает переписку двух пользователей в обе стороны.
// Мягко удалённые сообщения не попадают в выдачу.
func (d *Database) GetDirectMessages(userA, userB uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("deleted = false").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Разворачиваем порядок, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (d *Database) GetGroupMessages(groupID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("group_id = ? AND deleted = false", groupID).
		Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (d *Database) GetPinnedDirectMessages(userA, userB uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.
		Where("pinned = true AND deleted = false").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}

func (d *Database) GetPinnedGroupMessages(groupID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.
		Where("group_id = ? AND pinned = true AND deleted = false", groupID).
		Order("created_at ASC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}

func (d *Database) SetPinned(id string, pinned bool) error {
	return d.db.Model(&models.Message{}).Where("id = ?", id).Update("pinned", pinned).Error
}

// SoftDeleteMessage только поднимает флаг, содержимое остаётся в таблице.
func (d *Database) SoftDeleteMessage(id string) error {
	return d.db.Model(&models.Message{}).Where("id = ?", id).Update("deleted", true).Error
}

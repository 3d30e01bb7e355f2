package database

import (
	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/models"
	"gorm.io/gorm/clause"
)

// AddBlock идемпотентна: повторная блокировка той же пары — no-op.
func (d *Database) AddBlock(blockerID, blockedID uuid.UUID) error {
	block := models.Block{BlockerID: blockerID, BlockedID: blockedID}
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&block).Error
}

func (d *Database) RemoveBlock(blockerID, blockedID uuid.UUID) error {
	return d.db.
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
}

// BlockedSetOf возвращает всех, кого blocker заблокировал.
func (d *Database) BlockedSetOf(blockerID uuid.UUID) ([]uuid.UUID, error) {
	var blocks []models.Block
	if err := d.db.Where("blocker_id = ?", blockerID).Find(&blocks).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.BlockedID)
	}
	return ids, nil
}

package database

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/models"
	"gorm.io/gorm"
)

const groupCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateGroupCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(groupCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = groupCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// CreateGroup создаёт группу с уникальным коротким кодом, создатель
// становится первым участником.
func (d *Database) CreateGroup(group *models.Group) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		for {
			code, err := generateGroupCode()
			if err != nil {
				return err
			}

			var count int64
			if err := tx.Model(&models.Group{}).Where("code = ?", code).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				group.Code = code
				break
			}
		}

		if err := tx.Create(group).Error; err != nil {
			return err
		}

		var creator models.User
		if err := tx.First(&creator, "id = ?", group.CreatedBy).Error; err != nil {
			return err
		}

		return tx.Model(group).Association("Members").Append(&creator)
	})
}

func (d *Database) GetGroup(id string) (*models.Group, error) {
	var group models.Group
	if err := d.db.Preload("Members").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (d *Database) FindGroupByCode(code string) (*models.Group, error) {
	var group models.Group
	if err := d.db.Preload("Members").Where("upper(code) = upper(?)", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (d *Database) SearchGroupsByName(query string) ([]models.Group, error) {
	var groups []models.Group
	err := d.db.
		Where("name ILIKE ?", "%"+query+"%").
		Limit(20).
		Find(&groups).Error
	return groups, err
}

func (d *Database) GetUserGroups(userID string) ([]models.Group, error) {
	var groups []models.Group
	err := d.db.
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Find(&groups).Error
	return groups, err
}

func (d *Database) JoinGroup(userID, groupID string) error {
	var user models.User
	var group models.Group

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&group, "id = ?", groupID).Error; err != nil {
		return err
	}

	return d.db.Model(&group).Association("Members").Append(&user)
}

// MembersOf возвращает идентификаторы участников группы. Для неизвестной
// группы возвращается пустой список, не ошибка.
func (d *Database) MembersOf(groupID uuid.UUID) ([]uuid.UUID, error) {
	var users []models.User
	err := d.db.
		Joins("JOIN group_members gm ON gm.user_id = users.id").
		Where("gm.group_id = ?", groupID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

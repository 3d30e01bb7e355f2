package groups

import (
	"context"
	"time"

	"github.com/c-pro/geche"
	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/logger"
	"go.uber.org/zap"
)

const (
	cacheTTL     = 5 * time.Second
	cacheCleanup = time.Minute
)

// MembershipStore — срез персистентного слоя, нужный индексу
type MembershipStore interface {
	MembersOf(groupID uuid.UUID) ([]uuid.UUID, error)
}

// Index отвечает на вопрос "кто состоит в группе G". Состав читается из
// хранилища и ненадолго кэшируется; Invalidate обязателен после join,
// чтобы вступивший сразу видел себя участником.
type Index struct {
	store MembershipStore
	cache geche.Geche[string, []uuid.UUID]
}

func NewIndex(ctx context.Context, store MembershipStore) *Index {
	return &Index{
		store: store,
		cache: geche.NewMapTTLCache[string, []uuid.UUID](ctx, cacheTTL, cacheCleanup),
	}
}

// MembersOf возвращает участников группы. Неизвестная группа — пустой
// список, не ошибка: существование группы проверяет вызывающий.
func (i *Index) MembersOf(groupID uuid.UUID) []uuid.UUID {
	if cached, err := i.cache.Get(groupID.String()); err == nil {
		return cached
	}

	members, err := i.store.MembersOf(groupID)
	if err != nil {
		logger.Log.Warn("membership lookup failed",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
		return nil
	}

	i.cache.Set(groupID.String(), members)
	return members
}

func (i *Index) IsMember(groupID, userID uuid.UUID) bool {
	for _, id := range i.MembersOf(groupID) {
		if id == userID {
			return true
		}
	}
	return false
}

// Invalidate сбрасывает кэш группы после изменения состава
func (i *Index) Invalidate(groupID uuid.UUID) {
	i.cache.Del(groupID.String())
}

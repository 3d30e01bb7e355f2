package moderation

import (
	"context"
	"errors"
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

var ErrSelfBlock = errors.New("cannot block yourself")

// BlockStore — срез персистентного слоя для чёрных списков
type BlockStore interface {
	AddBlock(blockerID, blockedID uuid.UUID) error
	RemoveBlock(blockerID, blockedID uuid.UUID) error
	BlockedSetOf(blockerID uuid.UUID) ([]uuid.UUID, error)
}

// Filter применяет направленные блокировки: если A заблокировал B,
// сообщения B не доходят до A, но A по-прежнему может писать B.
type Filter struct {
	store BlockStore
	cache geche.Geche[string, map[uuid.UUID]bool]
}

func NewFilter(ctx context.Context, store BlockStore) *Filter {
	return &Filter{
		store: store,
		cache: geche.NewMapTTLCache[string, map[uuid.UUID]bool](ctx, cacheTTL, cacheCleanup),
	}
}

// MayDeliver: true, если recipient не блокировал sender
func (f *Filter) MayDeliver(sender, recipient uuid.UUID) bool {
	return !f.blockedSet(recipient)[sender]
}

func (f *Filter) Block(blocker, blocked uuid.UUID) error {
	if blocker == blocked {
		return ErrSelfBlock
	}

	if err := f.store.AddBlock(blocker, blocked); err != nil {
		return err
	}

	f.cache.Del(blocker.String())
	return nil
}

func (f *Filter) Unblock(blocker, blocked uuid.UUID) error {
	if err := f.store.RemoveBlock(blocker, blocked); err != nil {
		return err
	}

	f.cache.Del(blocker.String())
	return nil
}

// BlockedSet возвращает список заблокированных пользователем
func (f *Filter) BlockedSet(blocker uuid.UUID) []uuid.UUID {
	set := f.blockedSet(blocker)
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (f *Filter) blockedSet(blocker uuid.UUID) map[uuid.UUID]bool {
	if cached, err := f.cache.Get(blocker.String()); err == nil {
		return cached
	}

	ids, err := f.store.BlockedSetOf(blocker)
	if err != nil {
		logger.Log.Warn("blocked set lookup failed",
			zap.String("user_id", blocker.String()),
			zap.Error(err))
		return nil
	}

	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	f.cache.Set(blocker.String(), set)
	return set
}

package moderation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlockStore struct {
	blocks map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeBlockStore() *fakeBlockStore {
	return &fakeBlockStore{blocks: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (s *fakeBlockStore) AddBlock(blockerID, blockedID uuid.UUID) error {
	if s.blocks[blockerID] == nil {
		s.blocks[blockerID] = make(map[uuid.UUID]bool)
	}
	s.blocks[blockerID][blockedID] = true
	return nil
}

func (s *fakeBlockStore) RemoveBlock(blockerID, blockedID uuid.UUID) error {
	delete(s.blocks[blockerID], blockedID)
	return nil
}

func (s *fakeBlockStore) BlockedSetOf(blockerID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.blocks[blockerID]))
	for id := range s.blocks[blockerID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestMayDeliver_Directional(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	filter := NewFilter(context.Background(), newFakeBlockStore())

	require.NoError(t, filter.Block(alice, bob))

	// Алиса заблокировала Боба: его сообщения до неё не доходят,
	// но в обратную сторону доставка не ограничена
	assert.False(t, filter.MayDeliver(bob, alice))
	assert.True(t, filter.MayDeliver(alice, bob))
}

func TestBlock_SelfRejected(t *testing.T) {
	alice := uuid.New()
	store := newFakeBlockStore()
	filter := NewFilter(context.Background(), store)

	assert.ErrorIs(t, filter.Block(alice, alice), ErrSelfBlock)
	assert.Empty(t, store.blocks[alice])
}

func TestBlock_Idempotent(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	filter := NewFilter(context.Background(), newFakeBlockStore())

	require.NoError(t, filter.Block(alice, bob))
	require.NoError(t, filter.Block(alice, bob))

	assert.ElementsMatch(t, []uuid.UUID{bob}, filter.BlockedSet(alice))
}

func TestUnblock_ReadYourWrites(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	filter := NewFilter(context.Background(), newFakeBlockStore())

	require.NoError(t, filter.Block(alice, bob))
	require.False(t, filter.MayDeliver(bob, alice)) // греем кэш

	// Разблокировка видна сразу, без ожидания TTL
	require.NoError(t, filter.Unblock(alice, bob))
	assert.True(t, filter.MayDeliver(bob, alice))
	assert.Empty(t, filter.BlockedSet(alice))
}

func TestBlockedSet_EmptyByDefault(t *testing.T) {
	filter := NewFilter(context.Background(), newFakeBlockStore())
	assert.Empty(t, filter.BlockedSet(uuid.New()))
}

package groups

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeMembershipStore struct {
	members map[uuid.UUID][]uuid.UUID
	err     error
	calls   int
}

func (s *fakeMembershipStore) MembersOf(groupID uuid.UUID) ([]uuid.UUID, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.members[groupID], nil
}

func TestMembersOf_UnknownGroupEmpty(t *testing.T) {
	index := NewIndex(context.Background(), &fakeMembershipStore{})
	assert.Empty(t, index.MembersOf(uuid.New()))
}

func TestMembersOf_Cached(t *testing.T) {
	groupID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	store := &fakeMembershipStore{members: map[uuid.UUID][]uuid.UUID{
		groupID: {alice, bob},
	}}
	index := NewIndex(context.Background(), store)

	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, index.MembersOf(groupID))
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, index.MembersOf(groupID))
	assert.Equal(t, 1, store.calls)
}

func TestInvalidate_ReadYourWrites(t *testing.T) {
	groupID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	store := &fakeMembershipStore{members: map[uuid.UUID][]uuid.UUID{
		groupID: {alice},
	}}
	index := NewIndex(context.Background(), store)

	assert.False(t, index.IsMember(groupID, bob))

	// Вступивший виден сразу после сброса кэша, без ожидания TTL
	store.members[groupID] = append(store.members[groupID], bob)
	index.Invalidate(groupID)
	assert.True(t, index.IsMember(groupID, bob))
}

func TestMembersOf_StoreErrorYieldsEmpty(t *testing.T) {
	store := &fakeMembershipStore{err: errors.New("db down")}
	index := NewIndex(context.Background(), store)

	assert.Empty(t, index.MembersOf(uuid.New()))
	assert.False(t, index.IsMember(uuid.New(), uuid.New()))
}

package calls

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	ws "github.com/mercury-im/mercury/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	online map[uuid.UUID]bool
	pushed map[uuid.UUID][]ws.Event
}

func newFakeRegistry(online ...uuid.UUID) *fakeRegistry {
	r := &fakeRegistry{
		online: make(map[uuid.UUID]bool),
		pushed: make(map[uuid.UUID][]ws.Event),
	}
	for _, id := range online {
		r.online[id] = true
	}
	return r
}

func (r *fakeRegistry) Push(userID uuid.UUID, ev ws.Event) bool {
	if !r.online[userID] {
		return false
	}
	r.pushed[userID] = append(r.pushed[userID], ev)
	return true
}

func (r *fakeRegistry) IsOnline(userID uuid.UUID) bool {
	return r.online[userID]
}

func (r *fakeRegistry) ofType(userID uuid.UUID, t ws.EventType) []ws.Event {
	var out []ws.Event
	for _, ev := range r.pushed[userID] {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fakeMembers struct {
	groups map[uuid.UUID][]uuid.UUID
}

func (m *fakeMembers) MembersOf(groupID uuid.UUID) []uuid.UUID {
	return m.groups[groupID]
}

func (m *fakeMembers) IsMember(groupID, userID uuid.UUID) bool {
	for _, id := range m.groups[groupID] {
		if id == userID {
			return true
		}
	}
	return false
}

var offer = json.RawMessage(`{"sdp":"offer"}`)

func TestOffer_RelayedToCallee(t *testing.T) {
	caller, callee := uuid.New(), uuid.New()
	registry := newFakeRegistry(caller, callee)
	relay := NewRelay(registry, &fakeMembers{})

	relay.Offer(caller, callee, offer, "video")

	events := registry.ofType(callee, ws.TypeCallOffer)
	require.Len(t, events, 1)
	assert.Equal(t, caller, events[0].From)
	assert.Empty(t, registry.pushed[caller])
}

func TestOffer_OfflineCalleeSignalsUnreachable(t *testing.T) {
	caller, callee := uuid.New(), uuid.New()
	registry := newFakeRegistry(caller) // callee оффлайн
	relay := NewRelay(registry, &fakeMembers{})

	relay.Offer(caller, callee, offer, "audio")

	// Тишина в ответ на offer — дефект; звонящий получает явный сигнал
	require.Len(t, registry.ofType(caller, ws.TypeCallUnreachable), 1)
	assert.Empty(t, registry.pushed[callee])
}

func TestAnswer_GoesOnlyToOfferer(t *testing.T) {
	caller, callee := uuid.New(), uuid.New()
	registry := newFakeRegistry(caller, callee)
	relay := NewRelay(registry, &fakeMembers{})

	relay.Offer(caller, callee, offer, "video")
	relay.Answer(callee, caller, json.RawMessage(`{"sdp":"answer"}`))

	events := registry.ofType(caller, ws.TypeCallAnswer)
	require.Len(t, events, 1)
	assert.Equal(t, callee, events[0].From)
}

func TestEnd_IdempotentPerSession(t *testing.T) {
	caller, callee := uuid.New(), uuid.New()
	registry := newFakeRegistry(caller, callee)
	relay := NewRelay(registry, &fakeMembers{})

	relay.Offer(caller, callee, offer, "video")
	relay.Answer(callee, caller, nil)

	relay.End(caller, callee)
	require.Len(t, registry.ofType(callee, ws.TypeCallEnd), 1)

	// Повторный end уже завершённого звонка — no-op
	relay.End(caller, callee)
	relay.End(callee, caller)
	assert.Len(t, registry.ofType(callee, ws.TypeCallEnd), 1)
	assert.Empty(t, registry.ofType(caller, ws.TypeCallEnd))
}

func TestGroupCall_JoinProtocol(t *testing.T) {
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()

	registry := newFakeRegistry(userA, userB, userC)
	members := &fakeMembers{groups: map[uuid.UUID][]uuid.UUID{
		groupID: {userA, userB, userC},
	}}
	relay := NewRelay(registry, members)

	// A начинает звонок: offer уходит B и C, но не A
	require.NoError(t, relay.GroupOffer(userA, groupID, offer, "video"))
	assert.Len(t, registry.ofType(userB, ws.TypeGroupCallOffer), 1)
	assert.Len(t, registry.ofType(userC, ws.TypeGroupCallOffer), 1)
	assert.Empty(t, registry.ofType(userA, ws.TypeGroupCallOffer))
	assert.ElementsMatch(t, []uuid.UUID{userA}, relay.Participants(groupID))

	// B отвечает: answer только A; A узнаёт о вступлении B
	require.NoError(t, relay.GroupAnswer(userB, groupID, userA, nil))
	assert.Len(t, registry.ofType(userA, ws.TypeGroupCallAnswer), 1)
	require.Len(t, registry.ofType(userA, ws.TypeParticipantJoined), 1)
	assert.Equal(t, userB, registry.ofType(userA, ws.TypeParticipantJoined)[0].From)
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, relay.Participants(groupID))

	// Поздний C запрашивает состав и получает ровно {A, B}
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, relay.Participants(groupID))

	// C рассылает свои offer: A и B узнают о вступлении C ровно один раз
	require.NoError(t, relay.GroupOffer(userC, groupID, offer, "video"))
	joinedAtA := registry.ofType(userA, ws.TypeParticipantJoined)
	require.Len(t, joinedAtA, 2)
	assert.Equal(t, userC, joinedAtA[1].From)
	joinedAtB := registry.ofType(userB, ws.TypeParticipantJoined)
	require.Len(t, joinedAtB, 1)
	assert.Equal(t, userC, joinedAtB[0].From)

	// A и B отвечают C: уже присутствующие повторно не анонсируются
	require.NoError(t, relay.GroupAnswer(userA, groupID, userC, nil))
	require.NoError(t, relay.GroupAnswer(userB, groupID, userC, nil))
	assert.Len(t, registry.ofType(userC, ws.TypeGroupCallAnswer), 2)
	assert.Len(t, registry.ofType(userA, ws.TypeParticipantJoined), 2)
	assert.Len(t, registry.ofType(userB, ws.TypeParticipantJoined), 1)
	assert.Empty(t, registry.ofType(userC, ws.TypeParticipantJoined))
	assert.ElementsMatch(t, []uuid.UUID{userA, userB, userC}, relay.Participants(groupID))
}

func TestGroupCall_NonMemberRejected(t *testing.T) {
	outsider := uuid.New()
	groupID := uuid.New()
	registry := newFakeRegistry(outsider)
	relay := NewRelay(registry, &fakeMembers{})

	assert.ErrorIs(t, relay.GroupOffer(outsider, groupID, offer, "video"), ErrNotMember)
	assert.ErrorIs(t, relay.GroupAnswer(outsider, groupID, uuid.New(), nil), ErrNotMember)
	assert.ErrorIs(t, relay.GroupICECandidate(outsider, groupID, nil, nil), ErrNotMember)
}

func TestGroupCall_AnswerWithoutCall(t *testing.T) {
	userA, userB := uuid.New(), uuid.New()
	groupID := uuid.New()
	registry := newFakeRegistry(userA, userB)
	members := &fakeMembers{groups: map[uuid.UUID][]uuid.UUID{groupID: {userA, userB}}}
	relay := NewRelay(registry, members)

	assert.ErrorIs(t, relay.GroupAnswer(userB, groupID, userA, nil), ErrNoActiveCall)
}

func TestGroupCall_TargetedAndBroadcastICE(t *testing.T) {
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	registry := newFakeRegistry(userA, userB, userC)
	members := &fakeMembers{groups: map[uuid.UUID][]uuid.UUID{
		groupID: {userA, userB, userC},
	}}
	relay := NewRelay(registry, members)

	require.NoError(t, relay.GroupOffer(userA, groupID, offer, "video"))
	require.NoError(t, relay.GroupAnswer(userB, groupID, userA, nil))
	require.NoError(t, relay.GroupAnswer(userC, groupID, userA, nil))

	candidate := json.RawMessage(`{"candidate":"c1"}`)

	// Адресный кандидат уходит только получателю
	require.NoError(t, relay.GroupICECandidate(userA, groupID, &userB, candidate))
	assert.Len(t, registry.ofType(userB, ws.TypeGroupCallICECandidate), 1)
	assert.Empty(t, registry.ofType(userC, ws.TypeGroupCallICECandidate))

	// Без адресата — всем остальным участникам
	require.NoError(t, relay.GroupICECandidate(userA, groupID, nil, candidate))
	assert.Len(t, registry.ofType(userB, ws.TypeGroupCallICECandidate), 2)
	assert.Len(t, registry.ofType(userC, ws.TypeGroupCallICECandidate), 1)
	assert.Empty(t, registry.ofType(userA, ws.TypeGroupCallICECandidate))
}

func TestGroupICECandidate_ParticipantsOnly(t *testing.T) {
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	registry := newFakeRegistry(userA, userB, userC)
	members := &fakeMembers{groups: map[uuid.UUID][]uuid.UUID{
		groupID: {userA, userB, userC},
	}}
	relay := NewRelay(registry, members)

	// Звонка ещё нет — кандидаты не принимаются даже от участника группы
	assert.ErrorIs(t, relay.GroupICECandidate(userA, groupID, nil, nil), ErrNoActiveCall)

	require.NoError(t, relay.GroupOffer(userA, groupID, offer, "video"))
	require.NoError(t, relay.GroupAnswer(userB, groupID, userA, nil))

	// C состоит в группе, но не в сессии звонка
	assert.ErrorIs(t, relay.GroupICECandidate(userC, groupID, &userA, nil), ErrNoActiveCall)
	assert.Empty(t, registry.ofType(userA, ws.TypeGroupCallICECandidate))
	assert.Empty(t, registry.ofType(userB, ws.TypeGroupCallICECandidate))
}

func TestGroupEnd_RemovesOnlySender(t *testing.T) {
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	registry := newFakeRegistry(userA, userB, userC)
	members := &fakeMembers{groups: map[uuid.UUID][]uuid.UUID{
		groupID: {userA, userB, userC},
	}}
	relay := NewRelay(registry, members)

	require.NoError(t, relay.GroupOffer(userA, groupID, offer, "video"))
	require.NoError(t, relay.GroupAnswer(userB, groupID, userA, nil))
	require.NoError(t, relay.GroupAnswer(userC, groupID, userA, nil))

	relay.GroupEnd(userB, groupID)

	assert.ElementsMatch(t, []uuid.UUID{userA, userC}, relay.Participants(groupID))
	assert.Len(t, registry.ofType(userA, ws.TypeParticipantLeft), 1)
	assert.Len(t, registry.ofType(userC, ws.TypeParticipantLeft), 1)
	assert.Empty(t, registry.ofType(userB, ws.TypeParticipantLeft))

	// Повторный end уже вышедшего — no-op
	relay.GroupEnd(userB, groupID)
	assert.Len(t, registry.ofType(userA, ws.TypeParticipantLeft), 1)

	// Сессия умирает с последним участником
	relay.GroupEnd(userA, groupID)
	relay.GroupEnd(userC, groupID)
	assert.Empty(t, relay.Participants(groupID))
}

func TestDropUser_SweepsAllSessions(t *testing.T) {
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	registry := newFakeRegistry(userA, userB, userC)
	members := &fakeMembers{groups: map[uuid.UUID][]uuid.UUID{
		groupID: {userA, userB, userC},
	}}
	relay := NewRelay(registry, members)

	// A в прямом звонке с B и в групповом звонке с C
	relay.Offer(userA, userB, offer, "audio")
	relay.Answer(userB, userA, nil)
	require.NoError(t, relay.GroupOffer(userA, groupID, offer, "video"))
	require.NoError(t, relay.GroupAnswer(userC, groupID, userA, nil))

	relay.DropUser(userA)

	// Пиры получают те же сигналы, что и при явном end
	require.Len(t, registry.ofType(userB, ws.TypeCallEnd), 1)
	left := registry.ofType(userC, ws.TypeParticipantLeft)
	require.Len(t, left, 1)
	assert.Equal(t, userA, left[0].From)

	assert.ElementsMatch(t, []uuid.UUID{userC}, relay.Participants(groupID))

	// Повторный обрыв ничего не дублирует
	relay.DropUser(userA)
	assert.Len(t, registry.ofType(userB, ws.TypeCallEnd), 1)
	assert.Len(t, registry.ofType(userC, ws.TypeParticipantLeft), 1)
}

package calls

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/logger"
	ws "github.com/mercury-im/mercury/internal/websocket"
	"go.uber.org/zap"
)

// Registry — доставка сигнальных событий живым соединениям
type Registry interface {
	Push(userID uuid.UUID, ev ws.Event) bool
	IsOnline(userID uuid.UUID) bool
}

// Membership — проверка участия в группе
type Membership interface {
	MembersOf(groupID uuid.UUID) []uuid.UUID
	IsMember(groupID, userID uuid.UUID) bool
}

type callState int

const (
	stateOffering callState = iota
	stateActive
)

type directCall struct {
	caller uuid.UUID
	callee uuid.UUID
	state  callState
}

// pairKey — неупорядоченная пара участников прямого звонка
type pairKey struct {
	a, b uuid.UUID
}

func makePairKey(x, y uuid.UUID) pairKey {
	if x.String() < y.String() {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// Relay маршрутизирует offer/answer/ICE/end между живыми участниками.
// Сигналы не подтверждаются и не повторяются: задача relay — доставить
// в правильное множество подключенных на момент отправки.
type Relay struct {
	registry Registry
	members  Membership

	mu sync.Mutex
	// Прямые звонки по паре участников
	direct map[pairKey]*directCall
	// Участники групповых звонков по groupID
	group map[uuid.UUID]map[uuid.UUID]bool
}

func NewRelay(registry Registry, members Membership) *Relay {
	return &Relay{
		registry: registry,
		members:  members,
		direct:   make(map[pairKey]*directCall),
		group:    make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

type directSignal struct {
	From     uuid.UUID       `json:"from"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	CallType string          `json:"call_type,omitempty"`
}

type groupSignal struct {
	GroupID  uuid.UUID       `json:"group_id"`
	From     uuid.UUID       `json:"from"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	CallType string          `json:"call_type,omitempty"`
}

func (r *Relay) push(to uuid.UUID, eventType ws.EventType, from uuid.UUID, data interface{}) bool {
	ev, err := ws.NewEvent(eventType, from, data)
	if err != nil {
		return false
	}
	return r.registry.Push(to, ev)
}

// Offer начинает прямой звонок. Недоступный адресат — это явный сигнал
// call_unreachable обратно звонящему, а не тишина.
func (r *Relay) Offer(from, to uuid.UUID, offer json.RawMessage, callType string) {
	if !r.registry.IsOnline(to) {
		r.push(from, ws.TypeCallUnreachable, to, map[string]interface{}{
			"to": to,
		})
		return
	}

	r.mu.Lock()
	r.direct[makePairKey(from, to)] = &directCall{caller: from, callee: to, state: stateOffering}
	r.mu.Unlock()

	r.push(to, ws.TypeCallOffer, from, directSignal{From: from, Payload: offer, CallType: callType})
}

// Answer уходит только исходному звонящему
func (r *Relay) Answer(from, to uuid.UUID, answer json.RawMessage) {
	r.mu.Lock()
	if call, ok := r.direct[makePairKey(from, to)]; ok {
		call.state = stateActive
	}
	r.mu.Unlock()

	r.push(to, ws.TypeCallAnswer, from, directSignal{From: from, Payload: answer})
}

// ICECandidate ретранслируется дословно второму концу пары
func (r *Relay) ICECandidate(from, to uuid.UUID, candidate json.RawMessage) {
	r.push(to, ws.TypeCallICECandidate, from, directSignal{From: from, Payload: candidate})
}

// End завершает прямой звонок. Повторный end той же пары — no-op.
func (r *Relay) End(from, to uuid.UUID) {
	r.mu.Lock()
	key := makePairKey(from, to)
	_, ok := r.direct[key]
	if ok {
		delete(r.direct, key)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.push(to, ws.TypeCallEnd, from, directSignal{From: from})
}

// joinSession добавляет пользователя в сессию звонка, создавая её
// лениво. Возвращает состав до добавления и был ли пользователь новым.
func (r *Relay) joinSession(groupID, userID uuid.UUID) (existing []uuid.UUID, added bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants, ok := r.group[groupID]
	if !ok {
		participants = make(map[uuid.UUID]bool)
		r.group[groupID] = participants
	}
	if participants[userID] {
		return nil, false
	}

	for id := range participants {
		existing = append(existing, id)
	}
	participants[userID] = true
	return existing, true
}

// Новичок анонсируется каждому, кто уже был в сессии, ровно один раз.
// Уже присутствующие участники повторно не анонсируются.
func (r *Relay) announceJoined(groupID, newcomer uuid.UUID, existing []uuid.UUID) {
	joined := groupSignal{GroupID: groupID, From: newcomer}
	for _, id := range existing {
		r.push(id, ws.TypeParticipantJoined, newcomer, joined)
	}
}

// GroupOffer рассылает предложение всем участникам группы кроме
// звонящего и записывает его в сессию звонка
func (r *Relay) GroupOffer(from, groupID uuid.UUID, offer json.RawMessage, callType string) error {
	if !r.members.IsMember(groupID, from) {
		return ErrNotMember
	}

	existing, added := r.joinSession(groupID, from)

	signal := groupSignal{GroupID: groupID, From: from, Payload: offer, CallType: callType}
	for _, member := range r.members.MembersOf(groupID) {
		if member == from {
			continue
		}
		r.push(member, ws.TypeGroupCallOffer, from, signal)
	}

	if added {
		r.announceJoined(groupID, from, existing)
	}

	return nil
}

// GroupAnswer: ответ уходит только исходному offerer; если отвечающий
// вступил в сессию этим ответом, остальные участники узнают о нём через
// participant_joined
func (r *Relay) GroupAnswer(from, groupID, to uuid.UUID, answer json.RawMessage) error {
	if !r.members.IsMember(groupID, from) {
		return ErrNotMember
	}

	r.mu.Lock()
	participants, ok := r.group[groupID]
	if !ok {
		r.mu.Unlock()
		return ErrNoActiveCall
	}

	var existing []uuid.UUID
	added := !participants[from]
	if added {
		for id := range participants {
			existing = append(existing, id)
		}
		participants[from] = true
	}
	r.mu.Unlock()

	r.push(to, ws.TypeGroupCallAnswer, from, groupSignal{GroupID: groupID, From: from, Payload: answer})

	if added {
		r.announceJoined(groupID, from, existing)
	}

	return nil
}

// GroupICECandidate адресуется конкретному участнику, а без адресата
// рассылается всем остальным участникам звонка. Слать кандидатов могут
// только участники сессии.
func (r *Relay) GroupICECandidate(from, groupID uuid.UUID, to *uuid.UUID, candidate json.RawMessage) error {
	if !r.members.IsMember(groupID, from) {
		return ErrNotMember
	}

	r.mu.Lock()
	participants, ok := r.group[groupID]
	inCall := ok && participants[from]
	r.mu.Unlock()

	if !inCall {
		return ErrNoActiveCall
	}

	signal := groupSignal{GroupID: groupID, From: from, Payload: candidate}

	if to != nil {
		r.push(*to, ws.TypeGroupCallICECandidate, from, signal)
		return nil
	}

	for _, id := range r.Participants(groupID) {
		if id == from {
			continue
		}
		r.push(id, ws.TypeGroupCallICECandidate, from, signal)
	}

	return nil
}

// Participants возвращает текущий состав сессии группового звонка.
// Пустой срез для группы без активного звонка.
func (r *Relay) Participants(groupID uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.group[groupID]))
	for id := range r.group[groupID] {
		ids = append(ids, id)
	}
	return ids
}

// GroupEnd убирает только отправителя; сессия живёт, пока в ней есть
// хотя бы один участник
func (r *Relay) GroupEnd(from, groupID uuid.UUID) {
	r.mu.Lock()
	participants, ok := r.group[groupID]
	if !ok || !participants[from] {
		r.mu.Unlock()
		return
	}

	delete(participants, from)
	remaining := make([]uuid.UUID, 0, len(participants))
	for id := range participants {
		remaining = append(remaining, id)
	}
	if len(participants) == 0 {
		delete(r.group, groupID)
	}
	r.mu.Unlock()

	left := groupSignal{GroupID: groupID, From: from}
	for _, id := range remaining {
		r.push(id, ws.TypeParticipantLeft, from, left)
	}
}

// DropUser — обрыв транспорта равносилен явному end во всех звонках
// пользователя: пиры не должны вечно ждать пропавшего участника.
func (r *Relay) DropUser(userID uuid.UUID) {
	r.mu.Lock()
	peers := make([]uuid.UUID, 0)
	for key, call := range r.direct {
		if call.caller == userID || call.callee == userID {
			other := call.caller
			if other == userID {
				other = call.callee
			}
			peers = append(peers, other)
			delete(r.direct, key)
		}
	}

	groupIDs := make([]uuid.UUID, 0)
	for groupID, participants := range r.group {
		if participants[userID] {
			groupIDs = append(groupIDs, groupID)
		}
	}
	r.mu.Unlock()

	for _, peer := range peers {
		r.push(peer, ws.TypeCallEnd, userID, directSignal{From: userID})
	}

	for _, groupID := range groupIDs {
		r.GroupEnd(userID, groupID)
	}

	if len(peers) > 0 || len(groupIDs) > 0 {
		logger.Log.Debug("swept call sessions after disconnect",
			zap.String("user_id", userID.String()),
			zap.Int("direct", len(peers)),
			zap.Int("group", len(groupIDs)))
	}
}

package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, 16),
		Hub:    h,
	}
}

func drain(c *Client) []Event {
	var events []Event
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return events
			}
			var ev Event
			if err := json.Unmarshal(data, &ev); err == nil {
				events = append(events, ev)
			}
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestHub_RegisterSendsSnapshot(t *testing.T) {
	h := NewHub()
	userA := uuid.New()

	clientA := newTestClient(h, userA)
	h.Register(clientA)

	events := drain(clientA)
	require.Len(t, events, 1)
	assert.Equal(t, TypeOnlineUsers, events[0].Type)

	var snapshot []uuid.UUID
	require.NoError(t, json.Unmarshal(events[0].Data, &snapshot))
	assert.Equal(t, []uuid.UUID{userA}, snapshot)
}

func TestHub_PresenceBroadcast(t *testing.T) {
	h := NewHub()
	userA, userB := uuid.New(), uuid.New()

	clientA := newTestClient(h, userA)
	h.Register(clientA)
	drain(clientA)

	clientB := newTestClient(h, userB)
	h.Register(clientB)

	// A должен узнать о подключении B
	events := drain(clientA)
	require.Len(t, events, 1)
	assert.Equal(t, TypeUserOnline, events[0].Type)
	assert.Equal(t, userB, events[0].From)

	h.Unregister(clientB)

	events = drain(clientA)
	require.Len(t, events, 1)
	assert.Equal(t, TypeUserOffline, events[0].Type)
	assert.Equal(t, userB, events[0].From)
}

func TestHub_ReconnectSupersedes(t *testing.T) {
	h := NewHub()
	userA := uuid.New()

	conn1 := newTestClient(h, userA)
	h.Register(conn1)

	conn2 := newTestClient(h, userA)
	h.Register(conn2)

	require.Same(t, conn2, h.Lookup(userA))

	// Запоздавший disconnect старого соединения не трогает новое
	h.Unregister(conn1)
	assert.Same(t, conn2, h.Lookup(userA))
	assert.True(t, h.IsOnline(userA))

	h.Unregister(conn2)
	assert.Nil(t, h.Lookup(userA))
	assert.False(t, h.IsOnline(userA))
}

func TestHub_SupersedeKeepsUserOnline(t *testing.T) {
	h := NewHub()
	userA, userB := uuid.New(), uuid.New()

	observer := newTestClient(h, userB)
	h.Register(observer)
	drain(observer)

	conn1 := newTestClient(h, userA)
	h.Register(conn1)
	drain(observer)

	conn2 := newTestClient(h, userA)
	h.Register(conn2)

	// Переподключение не генерирует ни offline, ни повторный online
	assert.Empty(t, drain(observer))
}

func TestHub_DisconnectHandlerOnlyOnEffectiveRemoval(t *testing.T) {
	h := NewHub()
	userA := uuid.New()

	var dropped []uuid.UUID
	h.SetDisconnectHandler(func(id uuid.UUID) {
		dropped = append(dropped, id)
	})

	conn1 := newTestClient(h, userA)
	h.Register(conn1)
	conn2 := newTestClient(h, userA)
	h.Register(conn2)

	h.Unregister(conn1)
	assert.Empty(t, dropped, "stale disconnect must not fire the handler")

	h.Unregister(conn2)
	assert.Equal(t, []uuid.UUID{userA}, dropped)

	h.Unregister(conn2)
	assert.Len(t, dropped, 1, "repeated unregister must not fire twice")
}

func TestHub_Push(t *testing.T) {
	h := NewHub()
	userA := uuid.New()

	clientA := newTestClient(h, userA)
	h.Register(clientA)
	drain(clientA)

	ev, err := NewEvent(TypeNewMessage, uuid.New(), map[string]string{"content": "hi"})
	require.NoError(t, err)

	assert.True(t, h.Push(userA, ev))

	events := drain(clientA)
	require.Len(t, events, 1)
	assert.Equal(t, TypeNewMessage, events[0].Type)

	// Оффлайн-пользователь — это не ошибка, просто false
	assert.False(t, h.Push(uuid.New(), ev))
}

func TestHub_SupersededClientClosed(t *testing.T) {
	h := NewHub()
	userA := uuid.New()

	conn1 := newTestClient(h, userA)
	h.Register(conn1)
	drain(conn1)

	conn2 := newTestClient(h, userA)
	h.Register(conn2)

	// Канал вытесненного соединения закрыт, отправка в него не паникует
	assert.ErrorIs(t, conn1.SendEvent(Event{Type: TypePing}), ErrClientQueueFull)

	_, open := <-conn1.Send
	assert.False(t, open)
}

func TestHub_OnlineUsers(t *testing.T) {
	h := NewHub()
	userA, userB := uuid.New(), uuid.New()

	h.Register(newTestClient(h, userA))
	h.Register(newTestClient(h, userB))

	online := h.OnlineUsers()
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, online)
}

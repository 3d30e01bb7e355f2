package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/logger"
	"go.uber.org/zap"
)

// Hub — реестр соединений: на каждого пользователя максимум одно
// текущее соединение, повторный вход вытесняет предыдущее.
type Hub struct {
	// Текущее соединение каждого подключенного пользователя
	clients map[uuid.UUID]*Client

	mu sync.RWMutex

	// Вызывается после фактического снятия привязки (не при вытеснении)
	onDisconnect func(userID uuid.UUID)

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetDisconnectHandler регистрирует обработчик фактических отключений.
// Должен быть выставлен до запуска сервера.
func (h *Hub) SetDisconnectHandler(fn func(userID uuid.UUID)) {
	h.onDisconnect = fn
}

// Run гоняет периодический ping всем клиентам
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.Close()
		client.Conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
}

// Register привязывает пользователя к соединению, вытесняя прежнюю
// привязку. Новому клиенту уходит срез онлайн-пользователей, остальным —
// user_online, если пользователь до этого был оффлайн.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()

	prev, wasOnline := h.clients[client.UserID]
	h.clients[client.UserID] = client

	if wasOnline {
		// Старое соединение больше не адресуется реестром
		prev.Close()
	}

	snapshot := make([]uuid.UUID, 0, len(h.clients))
	for userID := range h.clients {
		snapshot = append(snapshot, userID)
	}

	h.mu.Unlock()

	logger.Log.Info("client registered",
		zap.String("user_id", client.UserID.String()),
		zap.Bool("superseded", wasOnline))

	if ev, err := NewEvent(TypeOnlineUsers, uuid.Nil, snapshot); err == nil {
		client.SendEvent(ev)
	}

	if !wasOnline {
		h.broadcast(TypeUserOnline, client.UserID)
	}
}

// Unregister снимает привязку, только если client всё ещё текущее
// соединение пользователя: запоздавший disconnect старого соединения не
// должен снести привязку нового.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	current, ok := h.clients[client.UserID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.UserID)
	client.Close()

	h.mu.Unlock()

	logger.Log.Info("client unregistered", zap.String("user_id", client.UserID.String()))

	h.broadcast(TypeUserOffline, client.UserID)

	if h.onDisconnect != nil {
		h.onDisconnect(client.UserID)
	}
}

// Lookup возвращает текущее соединение пользователя, nil если оффлайн
func (h *Hub) Lookup(userID uuid.UUID) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// Push отправляет событие пользователю, если тот подключен. Возвращает
// false для оффлайн-пользователя; это не ошибка.
func (h *Hub) Push(userID uuid.UUID, ev Event) bool {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	if err := client.SendEvent(ev); err != nil {
		logger.Log.Debug("push dropped",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return false
	}
	return true
}

// IsOnline сообщает, есть ли у пользователя живое соединение
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// OnlineUsers возвращает список подключенных пользователей
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// broadcast шлёт событие статуса всем клиентам, не дожидаясь медленных.
// Сам пользователь о смене собственного статуса не уведомляется.
func (h *Hub) broadcast(status EventType, userID uuid.UUID) {
	ev, err := NewEvent(status, userID, nil)
	if err != nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.clients {
		if id == userID {
			continue
		}
		client.sendRaw(data)
	}
}

func (h *Hub) ping() {
	ev := Event{Type: TypePing, Timestamp: time.Now()}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.sendRaw(data)
	}
}

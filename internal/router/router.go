package router

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/content"
	"github.com/mercury-im/mercury/internal/logger"
	"github.com/mercury-im/mercury/internal/models"
	ws "github.com/mercury-im/mercury/internal/websocket"
	"go.uber.org/zap"
)

// Store — операции персистентного слоя, нужные маршрутизатору
type Store interface {
	AppendMessage(message *models.Message) error
	GetMessage(id string) (*models.Message, error)
	GetUser(id string) (*models.User, error)
	GetGroup(id string) (*models.Group, error)
	SetPinned(id string, pinned bool) error
	SoftDeleteMessage(id string) error
}

// Registry — доставка событий живым соединениям
type Registry interface {
	Push(userID uuid.UUID, ev ws.Event) bool
}

// Membership — состав групп
type Membership interface {
	MembersOf(groupID uuid.UUID) []uuid.UUID
	IsMember(groupID, userID uuid.UUID) bool
}

// Moderator — проверка направленных блокировок
type Moderator interface {
	MayDeliver(sender, recipient uuid.UUID) bool
}

// Router принимает запрос на отправку, персистит сообщение и доставляет
// его каждому живому получателю ровно один раз, с эхом отправителю.
type Router struct {
	store    Store
	registry Registry
	members  Membership
	filter   Moderator
}

func New(store Store, registry Registry, members Membership, filter Moderator) *Router {
	return &Router{
		store:    store,
		registry: registry,
		members:  members,
		filter:   filter,
	}
}

// SendRequest: адресат задаётся строго одним из двух полей
type SendRequest struct {
	RecipientID *uuid.UUID
	GroupID     *uuid.UUID
	Kind        models.MessageKind
	Content     string
	FileURL     string
	FileName    string
	FileSize    int64
	Duration    int
}

// MessagePayload — сериализуемое представление сообщения в событиях
type MessagePayload struct {
	ID          uuid.UUID          `json:"id"`
	SenderID    uuid.UUID          `json:"sender_id"`
	RecipientID *uuid.UUID         `json:"recipient_id,omitempty"`
	GroupID     *uuid.UUID         `json:"group_id,omitempty"`
	Kind        models.MessageKind `json:"kind"`
	Content     string             `json:"content,omitempty"`
	FileURL     string             `json:"file_url,omitempty"`
	FileName    string             `json:"file_name,omitempty"`
	FileSize    int64              `json:"file_size,omitempty"`
	Duration    int                `json:"duration,omitempty"`
	Pinned      bool               `json:"pinned"`
	CreatedAt   time.Time          `json:"created_at"`
}

func payloadFrom(m *models.Message) MessagePayload {
	return MessagePayload{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		GroupID:     m.GroupID,
		Kind:        m.Kind,
		Content:     m.Content,
		FileURL:     m.FileURL,
		FileName:    m.FileName,
		FileSize:    m.FileSize,
		Duration:    m.Duration,
		Pinned:      m.Pinned,
		CreatedAt:   m.CreatedAt,
	}
}

// Send проводит сообщение через весь конвейер: валидация, блокировки,
// запись, развозка по живым соединениям, эхо отправителю. Отметка
// времени всегда серверная.
func (r *Router) Send(sender uuid.UUID, req SendRequest) (*models.Message, error) {
	if (req.RecipientID == nil) == (req.GroupID == nil) {
		return nil, ErrAmbiguousTarget
	}

	text := content.Sanitize(req.Content)
	if text == "" && req.FileURL == "" {
		return nil, ErrEmptyMessage
	}

	kind := req.Kind
	if kind == "" {
		kind = models.KindText
	}
	switch kind {
	case models.KindText, models.KindFile, models.KindVoice, models.KindVideo:
	default:
		return nil, ErrUnknownKind
	}

	// Проверки до записи: отвергнутое сообщение не должно попасть в историю
	if req.RecipientID != nil {
		if _, err := r.store.GetUser(req.RecipientID.String()); err != nil {
			return nil, ErrUnknownRecipient
		}
		if !r.filter.MayDeliver(sender, *req.RecipientID) {
			return nil, ErrBlocked
		}
	} else {
		if _, err := r.store.GetGroup(req.GroupID.String()); err != nil {
			return nil, ErrUnknownGroup
		}
		if !r.members.IsMember(*req.GroupID, sender) {
			return nil, ErrNotMember
		}
	}

	message := &models.Message{
		SenderID:    sender,
		RecipientID: req.RecipientID,
		GroupID:     req.GroupID,
		Kind:        kind,
		Content:     text,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
		CreatedAt:   time.Now(),
	}

	if err := r.store.AppendMessage(message); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	payload := payloadFrom(message)

	for _, recipient := range r.resolveRecipients(sender, message) {
		ev, err := ws.NewEvent(ws.TypeNewMessage, sender, payload)
		if err != nil {
			continue
		}
		if !r.registry.Push(recipient, ev) {
			logger.Log.Debug("recipient offline, live delivery skipped",
				zap.String("recipient", recipient.String()),
				zap.String("message_id", message.ID.String()))
		}
	}

	// Эхо подтверждает запись и несёт серверные id и отметку времени
	if ev, err := ws.NewEvent(ws.TypeMessageSent, sender, payload); err == nil {
		r.registry.Push(sender, ev)
	}

	return message, nil
}

// resolveRecipients: для личного сообщения — один адресат, для
// группового — участники минус отправитель минус заблокировавшие его.
func (r *Router) resolveRecipients(sender uuid.UUID, m *models.Message) []uuid.UUID {
	if m.RecipientID != nil {
		return []uuid.UUID{*m.RecipientID}
	}

	members := r.members.MembersOf(*m.GroupID)
	recipients := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		if member == sender {
			continue
		}
		if !r.filter.MayDeliver(sender, member) {
			continue
		}
		recipients = append(recipients, member)
	}
	return recipients
}

// Pin выставляет флаг закрепления. Закреплять может любой участник
// переписки; повторное закрепление в то же состояние — успех.
func (r *Router) Pin(requester uuid.UUID, messageID string, pinned bool) (*models.Message, error) {
	message, err := r.store.GetMessage(messageID)
	if err != nil {
		return nil, ErrUnknownMessage
	}

	if !r.isParticipant(requester, message) {
		return nil, fmt.Errorf("%w: not a participant of this chat", ErrPermissionDenied)
	}

	if message.Pinned != pinned {
		if err := r.store.SetPinned(messageID, pinned); err != nil {
			return nil, fmt.Errorf("set pinned: %w", err)
		}
		message.Pinned = pinned
	}

	r.notifyChat(requester, message, ws.TypeMessagePinned, map[string]interface{}{
		"message_id": message.ID,
		"pinned":     message.Pinned,
	})

	return message, nil
}

// Delete — мягкое удаление, доступно только автору сообщения
func (r *Router) Delete(requester uuid.UUID, messageID string) error {
	message, err := r.store.GetMessage(messageID)
	if err != nil {
		return ErrUnknownMessage
	}

	if message.SenderID != requester {
		return ErrNotSender
	}

	if !message.Deleted {
		if err := r.store.SoftDeleteMessage(messageID); err != nil {
			return fmt.Errorf("soft delete: %w", err)
		}
	}

	r.notifyChat(requester, message, ws.TypeMessageDeleted, map[string]interface{}{
		"message_id": message.ID,
	})

	return nil
}

func (r *Router) isParticipant(userID uuid.UUID, m *models.Message) bool {
	if m.SenderID == userID {
		return true
	}
	if m.RecipientID != nil {
		return *m.RecipientID == userID
	}
	return r.members.IsMember(*m.GroupID, userID)
}

// notifyChat рассылает служебное событие всем сторонам переписки,
// включая инициатора
func (r *Router) notifyChat(from uuid.UUID, m *models.Message, eventType ws.EventType, data interface{}) {
	ev, err := ws.NewEvent(eventType, from, data)
	if err != nil {
		return
	}

	targets := r.resolveRecipients(m.SenderID, m)
	targets = append(targets, m.SenderID)

	seen := make(map[uuid.UUID]bool, len(targets))
	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true
		r.registry.Push(target, ev)
	}
}

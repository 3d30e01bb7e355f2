package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType определяет типы событий в обе стороны
type EventType string

const (
	// Системные типы
	TypePing  EventType = "ping"
	TypePong  EventType = "pong"
	TypeError EventType = "error"

	// Типы сообщений
	TypeSendMessage    EventType = "send_message"
	TypeNewMessage     EventType = "new_message"
	TypeMessageSent    EventType = "message_sent"
	TypePinMessage     EventType = "pin_message"
	TypeMessagePinned  EventType = "message_pinned"
	TypeDeleteMessage  EventType = "delete_message"
	TypeMessageDeleted EventType = "message_deleted"

	// Типы статусов
	TypeUserOnline  EventType = "user_online"
	TypeUserOffline EventType = "user_offline"
	TypeOnlineUsers EventType = "online_users"

	// Прямые звонки
	TypeCallOffer        EventType = "call_offer"
	TypeCallAnswer       EventType = "call_answer"
	TypeCallICECandidate EventType = "call_ice_candidate"
	TypeCallEnd          EventType = "call_end"
	TypeCallUnreachable  EventType = "call_unreachable"

	// Групповые звонки
	TypeGroupCallOffer        EventType = "group_call_offer"
	TypeGroupCallAnswer       EventType = "group_call_answer"
	TypeGroupCallICECandidate EventType = "group_call_ice_candidate"
	TypeGroupCallParticipants EventType = "group_call_participants"
	TypeParticipantJoined     EventType = "group_call_participant_joined"
	TypeParticipantLeft       EventType = "group_call_participant_left"
)

type Event struct {
	Type      EventType       `json:"type"`
	From      uuid.UUID       `json:"from,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent собирает событие с сериализованной полезной нагрузкой
func NewEvent(eventType EventType, from uuid.UUID, data interface{}) (Event, error) {
	ev := Event{
		Type:      eventType,
		From:      from,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = jsonData
	}

	return ev, nil
}

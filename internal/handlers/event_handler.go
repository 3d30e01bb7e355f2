package handlers

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mercury-im/mercury/internal/calls"
	"github.com/mercury-im/mercury/internal/database"
	"github.com/mercury-im/mercury/internal/groups"
	"github.com/mercury-im/mercury/internal/handlers/dto"
	"github.com/mercury-im/mercury/internal/logger"
	"github.com/mercury-im/mercury/internal/router"
	ws "github.com/mercury-im/mercury/internal/websocket"
	"go.uber.org/zap"
)

// EventHandler разбирает входящие события соединения и раздаёт их
// маршрутизатору сообщений и сигнальному relay
type EventHandler struct {
	db     *database.Database
	router *router.Router
	relay  *calls.Relay
	index  *groups.Index
}

func NewEventHandler(db *database.Database, r *router.Router, relay *calls.Relay, index *groups.Index) *EventHandler {
	return &EventHandler{db: db, router: r, relay: relay, index: index}
}

func (h *EventHandler) HandleEvent(client *ws.Client, ev *ws.Event) error {
	switch ev.Type {
	case ws.TypeSendMessage:
		return h.handleSend(client, ev)

	case ws.TypePinMessage:
		return h.handlePin(client, ev)

	case ws.TypeDeleteMessage:
		return h.handleDelete(client, ev)

	case ws.TypeCallOffer:
		var sig dto.CallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil {
			return ws.ErrInvalidEvent
		}
		h.relay.Offer(client.UserID, sig.To, sig.Payload, sig.CallType)
		return nil

	case ws.TypeCallAnswer:
		var sig dto.CallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil {
			return ws.ErrInvalidEvent
		}
		h.relay.Answer(client.UserID, sig.To, sig.Payload)
		return nil

	case ws.TypeCallICECandidate:
		var sig dto.CallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil {
			return ws.ErrInvalidEvent
		}
		h.relay.ICECandidate(client.UserID, sig.To, sig.Payload)
		return nil

	case ws.TypeCallEnd:
		var sig dto.EndCallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil {
			return ws.ErrInvalidEvent
		}
		switch {
		case sig.GroupID != nil:
			h.relay.GroupEnd(client.UserID, *sig.GroupID)
		case sig.To != nil:
			h.relay.End(client.UserID, *sig.To)
		default:
			return ws.ErrInvalidEvent
		}
		return nil

	case ws.TypeGroupCallOffer:
		var sig dto.GroupCallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil {
			return ws.ErrInvalidEvent
		}
		return h.relay.GroupOffer(client.UserID, sig.GroupID, sig.Payload, sig.CallType)

	case ws.TypeGroupCallAnswer:
		var sig dto.GroupCallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil || sig.To == nil {
			return ws.ErrInvalidEvent
		}
		return h.relay.GroupAnswer(client.UserID, sig.GroupID, *sig.To, sig.Payload)

	case ws.TypeGroupCallICECandidate:
		var sig dto.GroupCallSignal
		if err := json.Unmarshal(ev.Data, &sig); err != nil {
			return ws.ErrInvalidEvent
		}
		return h.relay.GroupICECandidate(client.UserID, sig.GroupID, sig.To, sig.Payload)

	case ws.TypeGroupCallParticipants:
		return h.handleParticipants(client, ev)

	default:
		logger.Log.Debug("unknown event type", zap.String("type", string(ev.Type)))
		return nil
	}
}

func (h *EventHandler) handleSend(client *ws.Client, ev *ws.Event) error {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return ws.ErrInvalidEvent
	}

	_, err := h.router.Send(client.UserID, router.SendRequest{
		RecipientID: req.RecipientID,
		GroupID:     req.GroupID,
		Kind:        req.Kind,
		Content:     req.Content,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
	})
	if err != nil {
		return err
	}

	go h.db.UpdateLastSeen(client.UserID.String())

	return nil
}

func (h *EventHandler) handlePin(client *ws.Client, ev *ws.Event) error {
	var req dto.PinMessageRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil || req.Pinned == nil {
		return ws.ErrInvalidEvent
	}

	_, err := h.router.Pin(client.UserID, req.MessageID.String(), *req.Pinned)
	return err
}

func (h *EventHandler) handleDelete(client *ws.Client, ev *ws.Event) error {
	var req dto.DeleteMessageRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return ws.ErrInvalidEvent
	}

	return h.router.Delete(client.UserID, req.MessageID.String())
}

// handleParticipants отвечает текущим составом сессии звонка: так
// поздний участник узнаёт, кому слать свои offer для полного mesh
func (h *EventHandler) handleParticipants(client *ws.Client, ev *ws.Event) error {
	var sig dto.GroupCallSignal
	if err := json.Unmarshal(ev.Data, &sig); err != nil {
		return ws.ErrInvalidEvent
	}

	if !h.index.IsMember(sig.GroupID, client.UserID) {
		return calls.ErrNotMember
	}

	reply, err := ws.NewEvent(ws.TypeGroupCallParticipants, uuid.Nil, map[string]interface{}{
		"group_id":     sig.GroupID,
		"participants": h.relay.Participants(sig.GroupID),
	})
	if err != nil {
		return err
	}

	return client.SendEvent(reply)
}

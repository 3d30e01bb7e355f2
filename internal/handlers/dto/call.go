package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CallSignal — сигнал прямого звонка (offer/answer/candidate)
type CallSignal struct {
	To       uuid.UUID       `json:"to"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	CallType string          `json:"call_type,omitempty"`
}

// GroupCallSignal — сигнал группового звонка; To используется для
// адресного answer/candidate
type GroupCallSignal struct {
	GroupID  uuid.UUID       `json:"group_id"`
	To       *uuid.UUID      `json:"to,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	CallType string          `json:"call_type,omitempty"`
}

// EndCallSignal завершает либо прямой звонок (to), либо участие в
// групповом (group_id)
type EndCallSignal struct {
	To      *uuid.UUID `json:"to,omitempty"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`
}

package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client event queue is full")
	ErrInvalidEvent    = errors.New("invalid event format")
	ErrUnauthorized    = errors.New("unauthorized")
)

package router

import (
	"errors"
	"fmt"
)

// Базовая таксономия: обработчики по ней выбирают HTTP-статус и код
// ответа клиенту.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

var (
	ErrAmbiguousTarget  = fmt.Errorf("%w: exactly one of recipient or group must be set", ErrValidation)
	ErrEmptyMessage     = fmt.Errorf("%w: message has no text and no file", ErrValidation)
	ErrUnknownKind      = fmt.Errorf("%w: unknown message kind", ErrValidation)
	ErrUnknownRecipient = fmt.Errorf("%w: recipient does not exist", ErrNotFound)
	ErrUnknownGroup     = fmt.Errorf("%w: group does not exist", ErrNotFound)
	ErrUnknownMessage   = fmt.Errorf("%w: message does not exist", ErrNotFound)
	ErrBlocked          = fmt.Errorf("%w: recipient has blocked the sender", ErrPermissionDenied)
	ErrNotMember        = fmt.Errorf("%w: sender is not a member of the group", ErrPermissionDenied)
	ErrNotSender        = fmt.Errorf("%w: only the original sender may delete a message", ErrPermissionDenied)
)

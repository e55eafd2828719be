package game

import (
	"errors"
	"fmt"
)

// The engine only rejects reference problems and malformed payloads. Anything
// that is merely illegal under the game's actual rules is applied as-is.
var (
	// ErrNotFound reports a missing game, player, or card reference.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAttachment reports a self-reference, missing target, or
	// would-be cycle in the attachment chain.
	ErrInvalidAttachment = errors.New("invalid attachment")
	// ErrInvalidAction reports an unknown action type or malformed payload.
	ErrInvalidAction = errors.New("invalid action")
	// ErrCapacityExceeded reports that both player slots are already filled.
	ErrCapacityExceeded = errors.New("game full")
)

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidAttachmentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAttachment, fmt.Sprintf(format, args...))
}

func invalidActionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...))
}

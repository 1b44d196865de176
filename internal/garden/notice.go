package garden

import (
	"whispers/backend/internal/apperr"
)

// Notice is the user-facing message produced when an operation fails.
type Notice struct {
	Kind    apperr.Kind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

const (
	opActivate = "activate"
	opAdd      = "add"
	opDelete   = "delete"
)

func noticeFor(op string, err error) *Notice {
	fallback := apperr.KindWriteFailed
	if op == opActivate {
		fallback = apperr.KindReadFailed
	}
	kind := apperr.KindOf(err, fallback)

	n := &Notice{Kind: kind, Title: "Error"}
	switch kind {
	case apperr.KindNotAuthenticated:
		n.Message = "Please sign in to tend your garden."
	case apperr.KindPermissionDenied:
		n.Message = "You don't have permission to change this garden."
	case apperr.KindUnavailable:
		n.Message = "Can't reach your garden right now. Check your connection and try again."
	case apperr.KindConflict:
		n.Message = "Your garden changed on another device. Refresh and try again."
	case apperr.KindReadFailed:
		n.Message = "Failed to load your garden. Please try again."
	default:
		switch op {
		case opAdd:
			n.Message = "Failed to plant your thought. Please try again."
		case opDelete:
			n.Message = "Failed to remove the thought. Please try again."
		default:
			n.Message = "Something went wrong. Please try again."
		}
	}
	return n
}

package apperr

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mongoUnauthorized is the server error code for an unauthorized command.
const mongoUnauthorized = 13

// FromStatus classifies a Firestore (gRPC) error. fallback is used for
// codes that carry no meaning for the user.
func FromStatus(op string, err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return Wrap(KindPermissionDenied, op, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return Wrap(KindUnavailable, op, err)
	case codes.Aborted:
		return Wrap(KindConflict, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindUnavailable, op, err)
	}
	return Wrap(fallback, op, err)
}

// FromMongo classifies a MongoDB driver error.
func FromMongo(op string, err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindUnavailable, op, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(mongoUnauthorized) {
		return Wrap(KindPermissionDenied, op, err)
	}
	return Wrap(fallback, op, err)
}

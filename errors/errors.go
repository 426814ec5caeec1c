package errors

import (
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Directory
	ErrAlreadyRegistered = fmt.Errorf("already registered")
	ErrInvalidDomain     = fmt.Errorf("invalid domain")
	ErrZoneUnreachable   = fmt.Errorf("zone unreachable")
	ErrAddressNotFound   = fmt.Errorf("address not found")

	// Sessions
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAlreadyLoggedIn    = fmt.Errorf("already logged in")
	ErrNotLoggedIn        = fmt.Errorf("not logged in")
	ErrMalformedCommand   = fmt.Errorf("malformed command")
	ErrUnknownCommand     = fmt.Errorf("unknown command")
	ErrInvalidAddress     = fmt.Errorf("invalid address")
	ErrInvalidUsername    = fmt.Errorf("invalid username")

	// Transport
	ErrConnectionClosed     = fmt.Errorf("connection closed")
	ErrMalformedPeerMessage = fmt.Errorf("malformed peer message")
	ErrInvalidKey           = fmt.Errorf("invalid shared key")
)

// MapToGRPCError converts a domain error into a gRPC status so that it can
// cross a zone boundary and be rebuilt on the other side by FromGRPCError.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())
	case stderrors.Is(err, ErrInvalidDomain):
		return status.Error(codes.InvalidArgument, err.Error())
	case stderrors.Is(err, ErrZoneUnreachable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCError is the client side of MapToGRPCError.
// Anything that is not a known domain failure is reported as ErrZoneUnreachable.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrZoneUnreachable, err)
	}
	switch st.Code() {
	case codes.AlreadyExists:
		return ErrAlreadyRegistered
	case codes.InvalidArgument:
		return ErrInvalidDomain
	default:
		return fmt.Errorf("%w: %s", ErrZoneUnreachable, st.Message())
	}
}

package services

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Error kinds returned by services. Handlers map them to HTTP status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("service unavailable")
)

// Invalid-argument subtypes.
var (
	ErrPollExpired   = errors.Wrap(ErrInvalidArgument, "poll has expired")
	ErrInvalidOption = errors.Wrap(ErrInvalidArgument, "invalid option")
	ErrInvalidAction = errors.Wrap(ErrInvalidArgument, "invalid vote action")
	ErrFileType      = errors.Wrap(ErrInvalidArgument, "file type not allowed")
	ErrFileTooLarge  = errors.Wrap(ErrInvalidArgument, "file too large")
)

// Invalid builds an invalid-argument error with a readable message.
func Invalid(msg string) error {
	return errors.Wrap(ErrInvalidArgument, msg)
}

// StoreErr translates storage errors into service error kinds. Anything it
// does not recognise is returned unchanged.
func StoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(ErrUnavailable, "storage timeout")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrConflict, "already exists")
	}
	return err
}

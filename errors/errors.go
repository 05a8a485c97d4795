package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrInvalidMessage    = fmt.Errorf("a message carries exactly one of text or photo url")
	ErrEmptyMessage      = fmt.Errorf("message is empty")
	ErrMessageTooLong    = fmt.Errorf("message exceeds the length limit")
	ErrAttachedElsewhere = fmt.Errorf("listener already attached to another channel")
	ErrEmptyChannel      = fmt.Errorf("channel must not be empty")
	ErrFeedCancelled     = fmt.Errorf("feed subscription cancelled")
	ErrHubClosed         = fmt.Errorf("feed hub is closed")
	ErrUnsupportedMedia  = fmt.Errorf("unsupported media type")

	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

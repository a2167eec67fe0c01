package errors

import "errors"

// Agent identification errors
var (
	// ErrAuthFailed is returned when agent identification fails
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInvalidToken is returned when an agent token is invalid
	ErrInvalidToken = errors.New("invalid token")
)

// Session and routing errors
var (
	// ErrSessionNotFound is returned when a SID has no live session
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotConnected is returned when a target SID is no longer connected
	ErrNotConnected = errors.New("not connected")

	// ErrSendBufferFull is returned when a session's send buffer is full
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrSessionClosed is returned when emitting to a closed session
	ErrSessionClosed = errors.New("session closed")
)

// Message errors
var (
	// ErrInvalidMessage is returned when a message payload fails validation
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnknownEvent is returned when no handler exists for an event name
	ErrUnknownEvent = errors.New("unknown event")
)

// Storage errors
var (
	// ErrStorageNotInitialized is returned when the audit store is not initialized
	ErrStorageNotInitialized = errors.New("storage not initialized")

	// ErrDatabaseConnection is returned when the database connection fails
	ErrDatabaseConnection = errors.New("database connection failed")
)

// Configuration errors
var (
	// ErrConfigNotFound is returned when the configuration file is not found
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)

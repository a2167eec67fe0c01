package auth

import (
	"chatrelay/pkg/errors"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/protocol"
)

// AgentAuthenticator validates an agent identification request before the
// connection is promoted to agent. Implementations must not block: the
// dispatcher calls Authenticate inline while handling the identify event.
type AgentAuthenticator interface {
	// Authenticate returns nil if the identification payload is acceptable
	Authenticate(sid string, payload *protocol.AgentConnectPayload) error
}

// AcceptAll is the placeholder authenticator: every identification request is
// accepted and promoted immediately. Production deployments should configure
// an agent token so TokenAuthenticator is used instead.
type AcceptAll struct{}

// NewAcceptAll creates the placeholder authenticator
func NewAcceptAll() *AcceptAll {
	return &AcceptAll{}
}

// Authenticate accepts every request
func (a *AcceptAll) Authenticate(sid string, payload *protocol.AgentConnectPayload) error {
	logger.Get().WarnWith("agent identification accepted without verification", "sid", sid)
	return nil
}

// TokenAuthenticator verifies the shared agent token carried in the
// identification payload.
type TokenAuthenticator struct {
	token string
}

// NewTokenAuthenticator creates a token authenticator
func NewTokenAuthenticator(token string) *TokenAuthenticator {
	return &TokenAuthenticator{token: token}
}

// Authenticate checks the payload token against the configured token
func (a *TokenAuthenticator) Authenticate(sid string, payload *protocol.AgentConnectPayload) error {
	if payload == nil || payload.Token == "" {
		logger.Get().WarnWith("agent identification missing token", "sid", sid)
		return errors.ErrAuthFailed
	}

	if payload.Token != a.token {
		logger.Get().WarnWith("agent identification with invalid token", "sid", sid)
		return errors.ErrInvalidToken
	}

	return nil
}

// ForToken returns the authenticator matching the configured token: the
// accept-all placeholder when the token is empty, token verification otherwise.
func ForToken(token string) AgentAuthenticator {
	if token == "" {
		return NewAcceptAll()
	}
	return NewTokenAuthenticator(token)
}

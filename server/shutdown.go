package server

import (
	"time"

	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/protocol"
	"chatrelay/pkg/relay"
)

// ShutdownCoordinator runs the connection drain half of a graceful stop:
// notify every live session, close each one, then wait out the grace period
// so the close frames can flush. Every step is best-effort; a failed notify
// or close is logged and never stops the sequence.
type ShutdownCoordinator struct {
	hub *Hub
	cfg config.ShutdownConfig

	// overridable in tests to avoid real sleeps
	sleep func(time.Duration)
}

// NewShutdownCoordinator creates a coordinator over the hub
func NewShutdownCoordinator(hub *Hub, cfg config.ShutdownConfig) *ShutdownCoordinator {
	return &ShutdownCoordinator{
		hub:   hub,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// DrainSessions notifies and closes every session live at the moment the
// snapshot is taken. Connections arriving afterwards are cut off when the
// HTTP listener stops.
func (sc *ShutdownCoordinator) DrainSessions() {
	sids := sc.hub.Snapshot()
	logger.Get().InfoWith("shutdown initiated", "sessions", len(sids))

	notice, err := protocol.NewEvent(protocol.EventSystemToClient, &protocol.SystemToClientPayload{
		User: protocol.UserSystem,
		Text: relay.NoticeServerShutdown,
	})
	if err != nil {
		logger.Get().ErrorWithErr("failed to build shutdown notice", err)
	} else {
		for _, sid := range sids {
			if err := sc.hub.Emit(sid, notice); err != nil {
				logger.Get().WarnWith("shutdown notice not delivered", "sid", sid, "error", err)
			}
		}
	}

	for _, sid := range sids {
		sc.hub.CloseSession(sid)
	}

	grace := time.Duration(sc.cfg.GracePeriodSeconds) * time.Second
	if grace > 0 {
		sc.sleep(grace)
	}

	logger.Get().Info("all sessions drained")
}

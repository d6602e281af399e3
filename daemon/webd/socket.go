package webd

import (
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/rotblauer/tempd/events"
)

type websocketAction string

var websocketActionCommit websocketAction = "commit"

type broadcommit struct {
	Action websocketAction       `json:"action"`
	Commit events.StackCommitted `json:"commit"`
}

// initMelody sets up the websocket handler and starts relaying commits.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	// New clients get the stack on display right away.
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", session.Request.RemoteAddr)
		c := s.Globe.Display.Current()
		if c == nil {
			return
		}
		b, err := json.Marshal(broadcommit{Action: websocketActionCommit, Commit: c.Event()})
		if err != nil {
			s.logger.Error("Failed to marshal commit", "error", err)
			return
		}
		if err := session.Write(b); err != nil {
			s.logger.Warn("Failed to write to websocket", "error", err)
		}
	})

	// Clients have nothing to tell us. Log and drop.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", session.Request.RemoteAddr)
	})

	commits := make(chan events.StackCommitted)
	sub := s.Globe.Display.Subscribe(commits)
	s.unsubscribe = sub.Unsubscribe
	go func() {
		for {
			select {
			case ev := <-commits:
				s.history.Add(ev)
				b, err := json.Marshal(broadcommit{Action: websocketActionCommit, Commit: ev})
				if err != nil {
					s.logger.Error("Failed to marshal commit event", "error", err)
					continue
				}
				if s.melodyInstance.IsClosed() {
					continue
				}
				if err := s.melodyInstance.Broadcast(b); err != nil {
					s.logger.Warn("Failed to broadcast commit event", "error", err)
				}
			case err := <-sub.Err():
				if err != nil {
					s.logger.Error("Commit subscription failed", "error", err)
				}
				return
			}
		}
	}()
}

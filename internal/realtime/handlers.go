package realtime

import (
	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/pkg/logger"
	"github.com/kindredapp/kindred/protocol/wire"
)

// inboundHandler turns raw event arguments into a reconciler input. A nil
// input means the event carries nothing to reconcile.
type inboundHandler func(c *conn, args []any) actor.Input

// register attaches every inbound handler to c's transport. It runs before
// the transport's first handshake so no event can slip past.
func (s *Session) register(c *conn) {
	handlers := map[string]inboundHandler{
		wire.EventConnect:                 s.onConnect,
		wire.EventDisconnect:              s.onDisconnect,
		wire.EventConnectError:            s.onConnectError,
		wire.EventPresenceOnline:          onPresenceOnline,
		wire.EventPresenceOffline:         onPresenceOffline,
		wire.EventPresenceStatus:          onPresenceStatus,
		wire.EventMoodChanged:             onMoodChanged,
		wire.EventMoodPartnerMood:         onPartnerMood,
		wire.EventMoodMyMood:              onMyMood,
		wire.EventScribbleReceived:        onScribbleReceived,
		wire.EventScribbleSent:            onScribbleSent,
		wire.EventScribbleError:           s.onScribbleError,
		wire.EventScribblePartnerScribble: onPartnerScribble,
	}

	events := append([]string{wire.EventConnect, wire.EventDisconnect, wire.EventConnectError},
		wire.InboundEvents...)
	for _, event := range events {
		event, handle := event, handlers[event]
		c.tr.On(event, func(args ...any) {
			logger.Tracef("realtime: <- %s", event)
			if wire.DumpEnabled() {
				wire.DumpToTestdata(event, args)
			}
			if in := handle(c, args); in != nil {
				s.deliver(c, in)
			}
		})
	}
}

// decodeArgs decodes the event payload into T, logging and reporting false
// on a malformed payload.
func decodeArgs[T any](event string, args []any) (T, bool) {
	var out T
	if err := wire.Decode(args, &out); err != nil {
		logger.Warnf("realtime: ignoring %s: %v", event, err)
		return out, false
	}
	return out, true
}

func (s *Session) onConnect(c *conn, _ []any) actor.Input {
	c.pending.Store(false)
	logger.Infof("realtime: connected as %s", c.userID)
	return evConnected{}
}

func (s *Session) onDisconnect(c *conn, args []any) actor.Input {
	c.pending.Store(false)
	reason := wire.Reason(args)
	logger.Infof("realtime: transport disconnected: %s", reason)
	return evDisconnected{Reason: reason}
}

func (s *Session) onConnectError(c *conn, args []any) actor.Input {
	c.pending.Store(false)
	reason := wire.Reason(args)
	logger.Warnf("realtime: connection error: %s", reason)
	return evConnectError{Err: reason}
}

func onPresenceOnline(_ *conn, args []any) actor.Input {
	// The name is informational only; a bare event still means online.
	var p wire.PresenceOnlinePayload
	_ = wire.Decode(args, &p)
	return evPresenceOnline{UserName: p.UserName}
}

func onPresenceOffline(_ *conn, _ []any) actor.Input {
	return evPresenceOffline{}
}

func onPresenceStatus(_ *conn, args []any) actor.Input {
	p, ok := decodeArgs[wire.PresenceStatusPayload](wire.EventPresenceStatus, args)
	if !ok {
		return nil
	}
	return evPresenceStatus{IsOnline: p.IsOnline}
}

func onMoodChanged(_ *conn, args []any) actor.Input {
	p, ok := decodeArgs[wire.MoodChangedPayload](wire.EventMoodChanged, args)
	if !ok {
		return nil
	}
	return evMoodChanged{Mood: p.Mood}
}

func onPartnerMood(_ *conn, args []any) actor.Input {
	p, ok := decodeArgs[wire.PartnerMoodPayload](wire.EventMoodPartnerMood, args)
	if !ok {
		return nil
	}
	return evPartnerMood{Mood: p.Mood, IsOnline: p.IsOnline}
}

func onMyMood(_ *conn, args []any) actor.Input {
	p, ok := decodeArgs[wire.MyMoodPayload](wire.EventMoodMyMood, args)
	if !ok {
		return nil
	}
	return evMyMood{Mood: p.Mood}
}

func onScribbleReceived(_ *conn, args []any) actor.Input {
	p, ok := decodeArgs[wire.Scribble](wire.EventScribbleReceived, args)
	if !ok {
		return nil
	}
	logger.Debugf("realtime: scribble from %s (%d paths)", p.FromUserName, len(p.Paths))
	return evScribbleReceived{Scribble: p}
}

func onScribbleSent(_ *conn, args []any) actor.Input {
	var p wire.ScribbleAckPayload
	_ = wire.Decode(args, &p)
	logger.Infof("realtime: scribble sent: %s", p.Message)
	return evScribbleSent{Message: p.Message}
}

func (s *Session) onScribbleError(_ *conn, args []any) actor.Input {
	var p wire.ScribbleAckPayload
	_ = wire.Decode(args, &p)
	logger.Warnf("realtime: scribble error: %s", p.Message)
	return evScribbleError{Message: p.Message, At: s.clock.Now()}
}

func onPartnerScribble(_ *conn, args []any) actor.Input {
	p, ok := decodeArgs[wire.PartnerScribblePayload](wire.EventScribblePartnerScribble, args)
	if !ok {
		return nil
	}
	return evPartnerScribble{Snapshot: p}
}

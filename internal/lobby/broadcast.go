package lobby

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrSlowClient = errors.New("client outbox full")

// broadcast delivers payload to every current player that still has an
// outbox. A full outbox never blocks the room: that client is dropped and the
// rest still get the frame.
func (l *Lobby) broadcast(payload []byte) {
	var errs error
	for id := range l.state.Players {
		if err := l.deliver(id, payload); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		l.logger.Warn("broadcast dropped clients",
			zap.Int("dropped", len(multierr.Errors(errs))), zap.Error(errs))
	}
}

func (l *Lobby) unicast(id string, payload []byte) {
	if err := l.deliver(id, payload); err != nil {
		l.logger.Warn("unicast dropped client", zap.Error(err))
	}
}

func (l *Lobby) deliver(id string, payload []byte) error {
	ch, ok := l.clients[id]
	if !ok {
		return nil
	}
	select {
	case ch <- payload:
		return nil
	default:
		// Client is slow/full - drop them. The transport sees the closed
		// outbox and disconnects.
		close(ch)
		delete(l.clients, id)
		return fmt.Errorf("client %s: %w", id, ErrSlowClient)
	}
}

package commands

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-insights/components/insights"
)

// ErrUnknownSession is returned when a command names a session the hub does not hold.
var ErrUnknownSession = errors.New("commands: unknown session")

// Sessions resolves a session id to its controller. *insights.Hub satisfies it.
type Sessions interface {
	Get(id string) (*insights.Controller, bool)
}

func resolve(sessions Sessions, id string) (*insights.Controller, error) {
	if sessions == nil {
		return nil, errors.New("commands: sessions not configured")
	}
	controller, ok := sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return controller, nil
}

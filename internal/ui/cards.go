package ui

import (
	"context"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/alkaid/internal/sensor"
)

// cardSet owns one observation stream per visible sensor card. Cards that
// leave the visible list have their stream closed, which releases the
// hardware registration.
type cardSet struct {
	ctx     context.Context
	reg     *sensor.Registry
	streams map[sensor.Type]*sensor.Stream
	latest  map[sensor.Type]sensor.Result
}

func newCardSet(ctx context.Context, reg *sensor.Registry) *cardSet {
	return &cardSet{
		ctx:     ctx,
		reg:     reg,
		streams: make(map[sensor.Type]*sensor.Stream),
		latest:  make(map[sensor.Type]sensor.Result),
	}
}

// sync opens streams for newly visible types and closes the rest. It returns
// a listen command per opened stream.
func (c *cardSet) sync(visible []sensor.Type) []tea.Cmd {
	if c.reg == nil {
		return nil
	}
	for t, s := range c.streams {
		if !slices.Contains(visible, t) {
			s.Close()
			delete(c.streams, t)
			delete(c.latest, t)
		}
	}

	var cmds []tea.Cmd
	for _, t := range visible {
		if _, ok := c.streams[t]; ok {
			continue
		}
		c.streams[t] = c.reg.Observe(c.ctx, t)
		c.latest[t] = sensor.Loading()
		cmds = append(cmds, c.next(t))
	}
	return cmds
}

// accept records msg if it came from the card's current stream.
func (c *cardSet) accept(msg SensorMsg) bool {
	s, ok := c.streams[msg.Type]
	if !ok || s != msg.stream {
		return false
	}
	c.latest[msg.Type] = msg.Result
	return true
}

// next waits for the following result on t's stream.
func (c *cardSet) next(t sensor.Type) tea.Cmd {
	s, ok := c.streams[t]
	if !ok {
		return nil
	}
	return listen(s.Results(), func(r sensor.Result) tea.Msg {
		return SensorMsg{Type: t, Result: r, stream: s}
	})
}

func (c *cardSet) results() map[sensor.Type]sensor.Result {
	out := make(map[sensor.Type]sensor.Result, len(c.latest))
	for t, r := range c.latest {
		out[t] = r
	}
	return out
}

func (c *cardSet) open() int {
	return len(c.streams)
}

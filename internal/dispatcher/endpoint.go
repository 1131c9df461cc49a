package dispatcher

import (
	"context"
	"io"
	"net"
	"sync/atomic"

	"github.com/danmuck/editorhost/internal/protocol/session"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// endpoint is the live channel to one remote window. The connection is dialed on the
// first queued frame.
type endpoint struct {
	desc    window.Descriptor
	payload session.DispatcherPayload
	outbox  *session.Outbox
	retired atomic.Bool
}

// retire reports true only for the first caller.
func (e *endpoint) retire() bool {
	return e.retired.CompareAndSwap(false, true)
}

// register installs the endpoint for desc. It returns false once the dispatcher is shut
// down.
func (d *Dispatcher) register(desc window.Descriptor, payload session.DispatcherPayload) bool {
	ep := &endpoint{
		desc:    desc,
		payload: payload,
		outbox:  session.NewOutbox(),
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		log.Debug().Str("window", desc.String()).Msg("dispatcher.Dispatcher.register after shutdown")
		return false
	}
	old := d.endpoints[desc.ID]
	d.endpoints[desc.ID] = ep
	d.writers.Add(1)
	d.mu.Unlock()

	if old != nil && old.retire() {
		old.outbox.Close()
		log.Debug().Str("window", desc.String()).Msg("dispatcher.Dispatcher.register replaced endpoint")
	}
	go d.runWriter(ep)
	return true
}

// drop removes a failed endpoint. A window whose channel fails can no longer acknowledge
// a force-quit, so its pending teardown completes here.
func (d *Dispatcher) drop(ep *endpoint, err error) {
	if !ep.retire() {
		return
	}
	d.mu.Lock()
	if d.endpoints[ep.desc.ID] == ep {
		delete(d.endpoints, ep.desc.ID)
	}
	d.mu.Unlock()
	ep.outbox.Close()

	log.Warn().Err(err).Str("window", ep.desc.String()).Msg("dispatcher.Dispatcher.drop endpoint")
	d.CompleteForceQuit(ep.desc)
}

func (d *Dispatcher) runWriter(ep *endpoint) {
	defer d.writers.Done()
	var conn net.Conn
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	for {
		items, closed := ep.outbox.Drain()
		for _, b := range items {
			if conn == nil {
				c, err := d.dial(context.Background(), ep.payload.Network, ep.payload.Address)
				if err != nil {
					d.drop(ep, err)
					return
				}
				conn = c
				go d.watch(ep, c)
			}
			if _, err := conn.Write(b); err != nil {
				d.drop(ep, err)
				return
			}
		}
		if closed {
			return
		}
		<-ep.outbox.Ready()
	}
}

// watch observes the outbound connection. Remote windows never write on it, so any read
// result means the remote closed it.
func (d *Dispatcher) watch(ep *endpoint, conn net.Conn) {
	_, err := io.Copy(io.Discard, conn)
	if err == nil {
		err = io.EOF
	}
	d.drop(ep, err)
}

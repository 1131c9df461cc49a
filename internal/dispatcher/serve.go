package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/observability"
	"github.com/danmuck/editorhost/internal/protocol/frame"
	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/session"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// Serve accepts inbound connections until ctx is cancelled. Frames are authenticated
// against this process's token, decoded, and handed to the Handler on the UI context in
// arrival order per connection.
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	if d.handlerOrNil() == nil {
		return ErrNoHandler
	}
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var conns sync.WaitGroup
	defer conns.Wait()
	log.Info().Str("window", d.self.String()).Str("address", d.address).Msg("dispatcher.Dispatcher.Serve listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("dispatcher: accept: %w", err)
		}
		conns.Add(1)
		go func() {
			defer conns.Done()
			d.serveConn(ctx, conn)
		}()
	}
}

func (d *Dispatcher) serveConn(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		f, err := frame.ReadFrame(conn, d.limits)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				log.Warn().Err(err).Msg("dispatcher.Dispatcher.serveConn read")
			}
			return
		}
		name := schema.Name(f.Header.MessageType)
		if err := d.token.Validate(f.Auth); err != nil {
			log.Warn().Err(err).Str("type", name).Msg("dispatcher.Dispatcher.serveConn rejected token")
			observability.RecordDispatcherMessage("in", name, "unauthorized")
			return
		}
		msg, err := session.Decode(f)
		if err != nil {
			log.Warn().Err(err).Str("type", name).Msg("dispatcher.Dispatcher.serveConn decode")
			observability.RecordDispatcherMessage("in", name, "invalid")
			continue
		}
		if !d.ui.Post(func() { d.handle(msg) }) {
			return
		}
	}
}

func (d *Dispatcher) handle(msg session.Message) {
	name := schema.Name(msg.MessageType())
	h := d.handlerOrNil()
	from, ok := window.Resolve(senderOf(msg))
	if !ok || h == nil {
		log.Warn().Int("sender", senderOf(msg)).Str("type", name).Msg("dispatcher.Dispatcher.handle unknown sender")
		observability.RecordDispatcherMessage("in", name, "unknown_sender")
		return
	}

	result := "ok"
	switch m := msg.(type) {
	case session.Register:
		if !d.register(from, m.Endpoint) {
			result = "closed"
			break
		}
		log.Info().Str("window", from.String()).Msg("dispatcher.Dispatcher.handle registered")
		h.OnWindowRegistered(from)
	case session.ForceQuit:
		if m.Target != d.self.ID {
			result = "misrouted"
			break
		}
		h.OnForceQuitRequested(from)
	case session.ForceQuitAck:
		d.CompleteForceQuit(from)
	case session.BringToFront:
		if m.Target != d.self.ID {
			result = "misrouted"
			break
		}
		h.OnBringToFront(from)
	case session.GameMenuAction:
		action, ok := gamemenu.DecodeFields(m.Body)
		if !ok {
			result = "unknown_action"
			break
		}
		h.OnGameMenuAction(from, action)
	default:
		result = "unhandled"
	}
	observability.RecordDispatcherMessage("in", name, result)
}

func senderOf(msg session.Message) int {
	switch m := msg.(type) {
	case session.Register:
		return m.Endpoint.WindowID
	case session.ForceQuit:
		return m.Sender
	case session.ForceQuitAck:
		return m.Sender
	case session.BringToFront:
		return m.Sender
	case session.GameMenuAction:
		return m.Sender
	default:
		return 0
	}
}

// Package dispatcher carries control messages between window processes. Each remote window
// is reached through one endpoint with a single FIFO writer, so messages to the same window
// keep program order. Sends are fire-and-forget; the only feedback is whether an endpoint
// existed.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/danmuck/editorhost/internal/auth"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/observability"
	"github.com/danmuck/editorhost/internal/protocol/frame"
	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/session"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoHandler = errors.New("dispatcher: handler not set")
	ErrClosed    = errors.New("dispatcher: shut down")
)

// Handler receives inbound control messages on the UI execution context.
type Handler interface {
	OnForceQuitRequested(from window.Descriptor)
	OnBringToFront(from window.Descriptor)
	OnGameMenuAction(from window.Descriptor, action gamemenu.Action)
	OnWindowRegistered(desc window.Descriptor)
}

// Poster schedules work on the UI execution context.
type Poster interface {
	Post(fn func()) bool
}

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type Options struct {
	Self    window.Descriptor
	Session session.Config
	// Address is where this process listens for inbound frames.
	Address string
	// Token authenticates inbound frames; generated when empty.
	Token string
	UI    Poster
	Dial  DialFunc
}

type Dispatcher struct {
	self    window.Descriptor
	network string
	address string
	token   auth.Token
	limits  frame.Limits
	ui      Poster
	dial    DialFunc
	nextID  atomic.Uint64

	mu        sync.Mutex
	handler   Handler
	endpoints map[int]*endpoint
	pending   map[int][]func()
	writers   sync.WaitGroup
	closed    bool
}

func New(opts Options) *Dispatcher {
	cfg := opts.Session
	if cfg.Network == "" {
		cfg.Network = session.DefaultConfig().Network
	}
	if cfg.Limits == (frame.Limits{}) {
		cfg.Limits = frame.DefaultLimits()
	}
	token := auth.Token(opts.Token)
	if token == "" {
		token = auth.NewToken()
	}
	dial := opts.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	return &Dispatcher{
		self:      opts.Self,
		network:   cfg.Network,
		address:   opts.Address,
		token:     token,
		limits:    cfg.Limits,
		ui:        opts.UI,
		dial:      dial,
		endpoints: make(map[int]*endpoint),
		pending:   make(map[int][]func()),
	}
}

func (d *Dispatcher) SetHandler(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

func (d *Dispatcher) Self() window.Descriptor {
	return d.self
}

// Listen opens the unix socket a window process serves on, replacing a stale socket file
// left by a previous instance of the same window.
func Listen(cfg session.Config, processName string) (net.Listener, string, error) {
	if err := os.MkdirAll(cfg.RuntimeDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("dispatcher: runtime dir: %w", err)
	}
	addr := cfg.SocketPath(processName)
	if cfg.Network == "unix" {
		if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("dispatcher: remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen(cfg.Network, addr)
	if err != nil {
		return nil, "", fmt.Errorf("dispatcher: listen %s: %w", addr, err)
	}
	return ln, filepath.Clean(addr), nil
}

// ParseStartIntent registers the window that launched this process, if it left a
// dispatcher payload, and announces this process back to it.
func (d *Dispatcher) ParseStartIntent(intent launch.Intent) error {
	if len(intent.DispatcherPayload) == 0 {
		return nil
	}
	parent, err := session.DecodePayload(intent.DispatcherPayload)
	if err != nil {
		log.Error().Err(err).Msg("dispatcher.Dispatcher.ParseStartIntent invalid payload")
		return fmt.Errorf("dispatcher: start intent: %w", err)
	}
	desc, ok := window.Resolve(parent.WindowID)
	if !ok {
		return fmt.Errorf("dispatcher: start intent: unknown window id %d", parent.WindowID)
	}
	if !d.register(desc, parent) {
		return ErrClosed
	}
	log.Info().Str("parent", desc.String()).Str("address", parent.Address).Msg("dispatcher.Dispatcher.ParseStartIntent")
	d.send(desc, session.Register{Endpoint: d.ownPayload()})
	return nil
}

// MessageDispatcherPayload is handed to a child process so it can reach this window.
func (d *Dispatcher) MessageDispatcherPayload() []byte {
	b, err := session.EncodePayload(d.ownPayload())
	if err != nil {
		log.Error().Err(err).Msg("dispatcher.Dispatcher.MessageDispatcherPayload")
		return nil
	}
	return b
}

func (d *Dispatcher) ownPayload() session.DispatcherPayload {
	return session.DispatcherPayload{
		WindowID: d.self.ID,
		Network:  d.network,
		Address:  d.address,
		Token:    string(d.token),
	}
}

func (d *Dispatcher) HasEndpoint(desc window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.endpoints[desc.ID]
	return ok
}

// RequestForceQuit asks desc to terminate. False means no endpoint was known and the
// caller must fall back to killing the process.
func (d *Dispatcher) RequestForceQuit(desc window.Descriptor) bool {
	d.mu.Lock()
	if _, ok := d.endpoints[desc.ID]; !ok {
		d.mu.Unlock()
		return false
	}
	if _, ok := d.pending[desc.ID]; !ok {
		d.pending[desc.ID] = nil
	}
	n := len(d.pending)
	d.mu.Unlock()
	observability.SetPendingForceQuits(n)

	if !d.send(desc, session.ForceQuit{Sender: d.self.ID, Target: desc.ID}) {
		// Endpoint vanished between the check and the send.
		d.CompleteForceQuit(desc)
		return false
	}
	log.Info().Str("target", desc.String()).Msg("dispatcher.Dispatcher.RequestForceQuit")
	return true
}

func (d *Dispatcher) IsPendingForceQuit(desc window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[desc.ID]
	return ok
}

// RunTaskAfterForceQuit defers task until desc's pending force-quit completes. It returns
// false, and task never runs, when no force-quit is pending.
func (d *Dispatcher) RunTaskAfterForceQuit(desc window.Descriptor, task func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	tasks, ok := d.pending[desc.ID]
	if !ok {
		return false
	}
	d.pending[desc.ID] = append(tasks, task)
	return true
}

// CompleteForceQuit ends desc's pending force-quit and posts its deferred tasks to the UI
// context in registration order. Later calls are no-ops.
func (d *Dispatcher) CompleteForceQuit(desc window.Descriptor) {
	d.mu.Lock()
	tasks, ok := d.pending[desc.ID]
	delete(d.pending, desc.ID)
	n := len(d.pending)
	d.mu.Unlock()
	if !ok {
		return
	}
	observability.SetPendingForceQuits(n)
	log.Info().Str("target", desc.String()).Int("deferred", len(tasks)).Msg("dispatcher.Dispatcher.CompleteForceQuit")
	for _, task := range tasks {
		if !d.ui.Post(task) {
			log.Warn().Str("target", desc.String()).Msg("dispatcher.Dispatcher.CompleteForceQuit ui closed")
			return
		}
	}
}

// AcknowledgeForceQuit tells requester this window is about to exit.
func (d *Dispatcher) AcknowledgeForceQuit(requester window.Descriptor) bool {
	return d.send(requester, session.ForceQuitAck{Sender: d.self.ID})
}

func (d *Dispatcher) BringEditorWindowToFront(desc window.Descriptor) bool {
	return d.send(desc, session.BringToFront{Sender: d.self.ID, Target: desc.ID})
}

// DispatchGameMenuAction relays action to desc. Without an endpoint the action is lost.
func (d *Dispatcher) DispatchGameMenuAction(desc window.Descriptor, action gamemenu.Action) {
	if !d.send(desc, session.GameMenuAction{Sender: d.self.ID, Body: action.Fields()}) {
		log.Debug().Str("target", desc.String()).Str("action", action.String()).Msg("dispatcher.Dispatcher.DispatchGameMenuAction dropped")
	}
}

// Endpoints lists the window IDs this process can currently reach.
func (d *Dispatcher) Endpoints() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, 0, len(d.endpoints))
	for _, ep := range window.All() {
		if _, ok := d.endpoints[ep.ID]; ok {
			out = append(out, ep.ID)
		}
	}
	return out
}

// Shutdown stops accepting sends and registrations and waits for queued frames to be
// written.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	eps := make([]*endpoint, 0, len(d.endpoints))
	for id, ep := range d.endpoints {
		eps = append(eps, ep)
		delete(d.endpoints, id)
	}
	d.mu.Unlock()
	for _, ep := range eps {
		ep.retire()
		ep.outbox.Close()
	}

	done := make(chan struct{})
	go func() {
		d.writers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) send(desc window.Descriptor, m session.Message) bool {
	name := schema.Name(m.MessageType())
	d.mu.Lock()
	ep, ok := d.endpoints[desc.ID]
	closed := d.closed
	d.mu.Unlock()
	if closed {
		observability.RecordDispatcherMessage("out", name, "closed")
		return false
	}
	if !ok {
		observability.RecordDispatcherMessage("out", name, "no_endpoint")
		return false
	}
	b, err := session.Marshal(d.nextID.Add(1), ep.payload.Token, m, d.limits)
	if err != nil {
		log.Error().Err(err).Str("target", desc.String()).Str("type", name).Msg("dispatcher.Dispatcher.send encode")
		observability.RecordDispatcherMessage("out", name, "invalid")
		return false
	}
	if !ep.outbox.Push(b) {
		observability.RecordDispatcherMessage("out", name, "closed")
		return false
	}
	observability.RecordDispatcherMessage("out", name, "queued")
	return true
}

func (d *Dispatcher) handlerOrNil() Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handler
}

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// ErrClosed is returned by Post once the peer link is down.
var ErrClosed = errors.New("peer closed")

// DefaultRequestTimeout bounds requests that pass no explicit timeout.
const DefaultRequestTimeout = 15 * time.Second

// HandlerFunc answers one request kind. The returned response is sent back
// to the requester verbatim.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) wire.Response

// NotifyFunc consumes one notification kind.
type NotifyFunc func(ctx context.Context, payload json.RawMessage)

// RequestHook sees every incoming request before kind dispatch, envelope
// included. Returning handled=true short-circuits the handler table; the
// hub uses this to forward frames addressed to another peer.
type RequestHook func(ctx context.Context, f wire.Frame) (resp wire.Response, handled bool)

// Peer drives one Conn: it correlates responses with requests, dispatches
// incoming requests to registered handlers, and serializes all outgoing
// frames through a single writer so they arrive in the order they were
// queued.
//
// Every request resolves exactly once. Timeouts, disconnects and handler
// panics all surface as failure responses, never as a second resolution.
type Peer struct {
	conn Conn
	name string

	writeCh   chan wire.Frame
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	pending map[string]chan wire.Response

	hmu      sync.RWMutex
	handlers map[wire.Kind]HandlerFunc
	notifies map[wire.Kind]NotifyFunc
	hook     RequestHook

	defaultTimeout time.Duration
}

// PeerOption configures a Peer at construction.
type PeerOption func(*Peer)

// WithName labels the peer in log lines.
func WithName(name string) PeerOption {
	return func(p *Peer) { p.name = name }
}

// WithDefaultTimeout replaces DefaultRequestTimeout for this peer.
func WithDefaultTimeout(d time.Duration) PeerOption {
	return func(p *Peer) { p.defaultTimeout = d }
}

// WithRequestHook installs the pre-dispatch request hook.
func WithRequestHook(h RequestHook) PeerOption {
	return func(p *Peer) { p.hook = h }
}

// NewPeer wraps a Conn. Call Run to start the read loop.
func NewPeer(conn Conn, opts ...PeerOption) *Peer {
	p := &Peer{
		conn:           conn,
		name:           "peer",
		writeCh:        make(chan wire.Frame, 64),
		done:           make(chan struct{}),
		pending:        make(map[string]chan wire.Response),
		handlers:       make(map[wire.Kind]HandlerFunc),
		notifies:       make(map[wire.Kind]NotifyFunc),
		defaultTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle registers the handler answering a request kind. Register before Run.
func (p *Peer) Handle(kind wire.Kind, fn HandlerFunc) {
	p.hmu.Lock()
	defer p.hmu.Unlock()
	p.handlers[kind] = fn
}

// HandleNotify registers the consumer for a notification kind.
func (p *Peer) HandleNotify(kind wire.Kind, fn NotifyFunc) {
	p.hmu.Lock()
	defer p.hmu.Unlock()
	p.notifies[kind] = fn
}

// Run starts the writer and reads frames until the link fails or ctx ends.
// On exit every in-flight request is resolved with a disconnect failure.
func (p *Peer) Run(ctx context.Context) error {
	go p.writeLoop()
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-p.done:
		}
	}()

	var readErr error
	for {
		f, err := p.conn.ReadFrame()
		if err != nil {
			readErr = err
			break
		}
		p.dispatch(ctx, f)
	}

	p.Close()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return readErr
}

// Close tears the link down and fails all in-flight requests.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.conn.Close()
		p.failAllPending()
		close(p.done)
	})
	return p.closeErr
}

// Send issues a request and blocks until its response arrives, the timeout
// elapses, or the link drops. The outcome is always a response; callers
// branch on Success rather than on an error value.
func (p *Peer) Send(ctx context.Context, kind wire.Kind, payload any, opts ...SendOption) wire.Response {
	cfg := sendConfig{timeout: p.defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := wire.NewRequest(kind, payload)
	if err != nil {
		return wire.Fail(wire.ErrInvalidPayload)
	}
	f.To = cfg.to
	f.TabID = cfg.tabID

	resultCh := make(chan wire.Response, 1)
	p.mu.Lock()
	p.pending[f.ID] = resultCh
	p.mu.Unlock()

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	if err := p.enqueue(f); err != nil {
		p.take(f.ID)
		return wire.Fail(wire.ErrPeerGone)
	}

	select {
	case resp := <-resultCh:
		return resp
	case <-ctx.Done():
		if ch := p.take(f.ID); ch == nil {
			// The response won the race; it is sitting in the buffer.
			select {
			case resp := <-resultCh:
				return resp
			default:
			}
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return wire.Fail(wire.ErrTimeout)
		}
		return wire.Fail(wire.ErrCanceled)
	case <-p.done:
		return wire.Fail(wire.ErrPeerGone)
	}
}

// Post queues a fire-and-forget notification.
func (p *Peer) Post(kind wire.Kind, payload any, opts ...SendOption) error {
	cfg := sendConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	f, err := wire.NewNotify(kind, payload)
	if err != nil {
		return err
	}
	f.To = cfg.to
	f.TabID = cfg.tabID
	return p.enqueue(f)
}

// Respond queues the response frame answering the request with id. Used by
// components that resolve requests outside the handler that received them.
func (p *Peer) Respond(id string, resp wire.Response) error {
	return p.enqueue(wire.NewResponse(id, resp))
}

func (p *Peer) enqueue(f wire.Frame) error {
	select {
	case p.writeCh <- f:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

func (p *Peer) writeLoop() {
	for {
		select {
		case f := <-p.writeCh:
			if err := p.conn.WriteFrame(f); err != nil {
				logger.Warnf("%s: write failed: %v", p.name, err)
				p.Close()
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *Peer) dispatch(ctx context.Context, f wire.Frame) {
	if err := f.Validate(); err != nil {
		logger.Warnf("%s: dropping malformed frame: %v", p.name, err)
		return
	}

	switch f.Type {
	case wire.FrameResponse:
		p.resolve(f.ID, *f.Response)

	case wire.FrameRequest:
		go p.serve(ctx, f)

	case wire.FrameNotify:
		p.hmu.RLock()
		fn := p.notifies[f.Kind]
		p.hmu.RUnlock()
		if fn == nil {
			logger.Debugf("%s: no consumer for notification %s", p.name, f.Kind)
			return
		}
		// Notifications run off the read loop: consumers may issue their
		// own requests, which need the loop alive to resolve.
		go fn(ctx, f.Payload)
	}
}

func (p *Peer) serve(ctx context.Context, f wire.Frame) {
	resp, handled := p.tryHook(ctx, f)
	if !handled {
		p.hmu.RLock()
		fn := p.handlers[f.Kind]
		p.hmu.RUnlock()

		if fn == nil {
			logger.Debugf("%s: no handler for request %s", p.name, f.Kind)
			resp = wire.Fail(wire.ErrUnknownKind)
		} else {
			resp = invoke(ctx, fn, f)
		}
	}

	if err := p.Respond(f.ID, resp); err != nil {
		logger.Warnf("%s: dropping response for %s: %v", p.name, f.Kind, err)
	}
}

// tryHook runs the request hook with the same panic protection handlers get.
func (p *Peer) tryHook(ctx context.Context, f wire.Frame) (resp wire.Response, handled bool) {
	if p.hook == nil {
		return wire.Response{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s: request hook panicked on %s: %v", p.name, f.Kind, r)
			resp, handled = wire.Fail(wire.ErrInternal), true
		}
	}()
	return p.hook(ctx, f)
}

// invoke runs a handler, converting a panic into a failure response so one
// bad request cannot take the whole link down.
func invoke(ctx context.Context, fn HandlerFunc, f wire.Frame) (resp wire.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("handler for %s panicked: %v", f.Kind, r)
			resp = wire.Fail(wire.ErrInternal)
		}
	}()
	return fn(ctx, f.Payload)
}

func (p *Peer) resolve(id string, resp wire.Response) {
	ch := p.take(id)
	if ch == nil {
		logger.Tracef("%s: dropping late response for %s", p.name, id)
		return
	}
	ch <- resp
}

// take removes and returns the pending channel for id, or nil when the
// request has already been resolved.
func (p *Peer) take(id string) chan wire.Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := p.pending[id]
	delete(p.pending, id)
	return ch
}

func (p *Peer) failAllPending() {
	p.mu.Lock()
	pending := p.pending
	p.pending = make(map[string]chan wire.Response)
	p.mu.Unlock()

	for id, ch := range pending {
		logger.Debugf("%s: failing in-flight request %s: link down", p.name, id)
		ch <- wire.Fail(wire.ErrPeerGone)
	}
}

type sendConfig struct {
	to      string
	tabID   string
	timeout time.Duration
}

// SendOption adjusts routing or deadline for one Send or Post.
type SendOption func(*sendConfig)

// ToAgent routes the frame through the hub to the agent serving tabID.
func ToAgent(tabID string) SendOption {
	return func(c *sendConfig) {
		c.to = wire.TargetAgent
		c.tabID = tabID
	}
}

// ToPanel routes the frame through the hub to the connected panel.
func ToPanel() SendOption {
	return func(c *sendConfig) { c.to = wire.TargetPanel }
}

// WithTimeout replaces the peer's default timeout for this request.
func WithTimeout(d time.Duration) SendOption {
	return func(c *sendConfig) { c.timeout = d }
}

package speech

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gudong621/readaloud/pkg/audio"
	"github.com/gudong621/readaloud/pkg/errorsx"
	"github.com/gudong621/readaloud/pkg/logging"
	"github.com/gudong621/readaloud/pkg/metrics"
	"github.com/gudong621/readaloud/pkg/resilience"
)

type connState int

const (
	stateClosed connState = iota
	stateConnecting
	stateOpen
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Client multiplexes synthesis requests over one persistent websocket.
// It lazily opens the socket on first use and silently reopens it after
// a close; a handshake failure is surfaced to the callers that hit it
// and the next call dials fresh.
type Client struct {
	cfg        Config
	log        *slog.Logger
	metrics    metrics.Observer
	breaker    *resilience.CircuitBreaker
	httpClient *http.Client

	reg *registry

	mu          sync.Mutex
	state       connState
	conn        *websocket.Conn
	connectDone chan struct{}
	connectErr  error
	gen         int
	closed      bool

	writeMu sync.Mutex
}

func NewClient(cfg Config) *Client {
	cfg = cfg.applyDefaults()
	return &Client{
		cfg:        cfg,
		log:        logging.NewComponentLogger(cfg.Logger, "speech"),
		metrics:    cfg.Metrics,
		breaker:    resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		httpClient: &http.Client{Timeout: cfg.DialTimeout},
		reg:        newRegistry(),
	}
}

// Synthesize turns text into one complete audio resource. It resolves
// only after the stream's terminal frame; partial audio is never
// returned. The caller releases the resource after use.
func (c *Client) Synthesize(ctx context.Context, text string, voice VoiceConfig) (*audio.Resource, error) {
	voice = voice.Normalize()
	id := newRequestID()
	req, err := c.reg.register(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := c.ensureReady(ctx); err != nil {
		c.reg.remove(id)
		return nil, err
	}
	if err := c.send(requestFrame(id, buildSSML(text, voice))); err != nil {
		c.reg.remove(id)
		return nil, errorsx.Wrap(err, errorsx.ReasonTTSSend)
	}
	c.log.Debug("synthesis request sent",
		slog.String("request_id", string(id)),
		slog.String("voice", voice.Voice))

	timer := time.NewTimer(c.cfg.SynthesisTimeout)
	defer timer.Stop()

	select {
	case res := <-req.done:
		if res.err != nil {
			return nil, res.err
		}
		c.metrics.RecordEvent(metrics.MetricsEvent{
			Name:  "tts_synthesize",
			Time:  time.Now(),
			Value: time.Since(start).Seconds(),
			Tags:  map[string]string{"voice": voice.Voice, "locale": voice.Locale},
			Fields: map[string]any{
				"bytes": res.resource.Len(),
			},
		})
		return res.resource, nil
	case <-ctx.Done():
		c.abandon(id, req)
		return nil, ctx.Err()
	case <-timer.C:
		c.abandon(id, req)
		c.log.Warn("synthesis timed out", slog.String("request_id", string(id)))
		return nil, errorsx.New("timed out waiting for terminal frame", errorsx.ReasonTTSTimeout)
	}
}

// SynthesizeToFile writes the synthesized audio to path.
func (c *Client) SynthesizeToFile(ctx context.Context, text string, voice VoiceConfig, path string) error {
	res, err := c.Synthesize(ctx, text, voice)
	if err != nil {
		return err
	}
	defer res.Release()
	return os.WriteFile(path, res.RawPayload(), 0o644)
}

// Close tears the client down. Outstanding requests are rejected and
// further calls fail fast.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.state = stateClosed
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
	c.reg.failAll(errorsx.New("client closed", errorsx.ReasonTTSClosed))
	return nil
}

// abandon removes a request after timeout or cancellation, draining a
// result that raced in so its pooled buffer is returned.
func (c *Client) abandon(id RequestID, req *pendingRequest) {
	c.reg.remove(id)
	select {
	case res := <-req.done:
		if res.resource != nil {
			res.resource.Release()
		}
	default:
	}
}

// ensureReady guarantees an open, configured socket. Concurrent callers
// during a handshake await that same handshake's outcome; only one
// socket is ever live.
func (c *Client) ensureReady(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errorsx.New("client closed", errorsx.ReasonTTSClosed)
	}
	switch c.state {
	case stateOpen:
		c.mu.Unlock()
		return nil

	case stateConnecting:
		done := c.connectDone
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return errorsx.Wrap(ctx.Err(), errorsx.ReasonTTSConnect)
		case <-done:
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == stateOpen {
			return nil
		}
		if c.connectErr != nil {
			return errorsx.Wrap(c.connectErr, dialReason(c.connectErr))
		}
		return errorsx.New("socket closed during handshake", errorsx.ReasonTTSConnect)
	}

	// Closed: this caller dials.
	if !c.breaker.Allow() {
		c.mu.Unlock()
		return errorsx.New("synthesis endpoint circuit open", errorsx.ReasonTTSCircuitOpen)
	}
	c.state = stateConnecting
	done := make(chan struct{})
	c.connectDone = done
	c.connectErr = nil
	c.mu.Unlock()

	start := time.Now()
	conn, err := c.dial(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = stateClosed
		c.connectErr = err
		close(done)
		c.mu.Unlock()
		c.breaker.OnError(err)
		c.log.Error("handshake failed", slog.String("error", err.Error()))
		return errorsx.Wrap(err, dialReason(err))
	}
	if c.closed {
		c.state = stateClosed
		close(done)
		c.mu.Unlock()
		_ = conn.Close()
		return errorsx.New("client closed", errorsx.ReasonTTSClosed)
	}
	c.conn = conn
	c.state = stateOpen
	c.gen++
	gen := c.gen
	close(done)
	c.mu.Unlock()

	c.breaker.OnSuccess()
	c.metrics.RecordEvent(metrics.MetricsEvent{
		Name:  "tts_connect",
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
	})
	c.log.Info("connected to synthesis endpoint")

	go c.readLoop(conn, gen)
	return nil
}

// dial opens a socket with the rotating token in the URL and sends the
// configuration frame exactly once before readiness resolves.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("TrustedClientToken", trustedClientToken)
	q.Set("Sec-MS-GEC", generateToken(time.Now(), trustedClientToken))
	q.Set("Sec-MS-GEC-Version", secMSGECVersion)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.DialTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.RateLimitError{Endpoint: "synthesis", Message: resp.Status}
		}
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, configFrame(c.cfg.OutputFormat)); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// send transmits one outbound frame. A socket that closed between
// readiness and the send is reported immediately.
func (c *Client) send(frame []byte) error {
	c.mu.Lock()
	if c.state != stateOpen || c.conn == nil {
		state := c.state
		c.mu.Unlock()
		return errorsx.New("socket not open: "+state.String(), errorsx.ReasonTTSSend)
	}
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// readLoop owns inbound demultiplexing for one socket generation. Every
// frame is routed to completion before the next is read, so fragment
// order matches arrival order.
func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, gen, err)
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(raw []byte) {
	frame := parseInbound(raw)
	if frame.id == "" {
		return
	}
	if frame.terminal {
		if _, ok := c.reg.finish(frame.id); ok {
			c.log.Debug("stream complete", slog.String("request_id", string(frame.id)))
		} else {
			c.log.Debug("terminal frame without audio or request",
				slog.String("request_id", string(frame.id)))
		}
		return
	}
	if len(frame.payload) == 0 {
		return
	}
	if !c.reg.append(frame.id, frame.payload) {
		c.log.Debug("discarding unrouted frame", slog.String("request_id", string(frame.id)))
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, gen int, err error) {
	c.mu.Lock()
	if c.gen != gen {
		// A newer socket already replaced this one.
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = nil
	c.state = stateClosed
	c.mu.Unlock()
	_ = conn.Close()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.log.Info("socket closed")
	} else {
		c.log.Warn("socket closed with error", slog.String("error", err.Error()))
	}
	c.reg.failAll(errorsx.Wrap(err, errorsx.ReasonTTSClosed))
}

func dialReason(err error) errorsx.ReasonCode {
	if resilience.IsRateLimit(err) {
		return errorsx.ReasonTTSRateLimit
	}
	return errorsx.ReasonTTSConnect
}

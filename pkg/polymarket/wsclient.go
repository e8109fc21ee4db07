package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrNotOpen       = errors.New("session not open")
)

// DialerConfig configures how sessions to the user channel are opened.
type DialerConfig struct {
	URL              string        // websocket endpoint
	HandshakeTimeout time.Duration // dial + upgrade deadline
	WriteTimeout     time.Duration // per-frame write deadline
	ReadTimeout      time.Duration // max silence between inbound frames; 0 disables
	BufferSize       int           // inbound frame buffer
}

// DefaultDialerConfig returns the production endpoint with conservative timeouts.
func DefaultDialerConfig() DialerConfig {
	return DialerConfig{
		URL:              DefaultUserChannelURL,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// Dialer opens websocket sessions. Each Dial returns a brand new Session.
type Dialer struct {
	cfg    DialerConfig
	ws     *websocket.Dialer
	logger *zap.Logger
}

// NewDialer creates a Dialer for the configured endpoint.
func NewDialer(cfg DialerConfig, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultDialerConfig().BufferSize
	}
	return &Dialer{
		cfg: cfg,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: logger,
	}
}

// Dial connects to the endpoint and starts the read pump of the new session.
func (d *Dialer) Dial(ctx context.Context) (*Session, error) {
	if d.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.HandshakeTimeout)
		defer cancel()
	}

	conn, resp, err := d.ws.DialContext(ctx, d.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", d.cfg.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", d.cfg.URL, err)
	}

	s := &Session{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: d.cfg.WriteTimeout,
		readTimeout:  d.cfg.ReadTimeout,
		messages:     make(chan []byte, d.cfg.BufferSize),
		done:         make(chan struct{}),
		open:         true,
	}
	s.logger = d.logger.With(zap.String("session", s.id))

	go s.readLoop()

	s.logger.Info("websocket connected", zap.String("url", d.cfg.URL))
	return s, nil
}

// Session is one websocket connection. It is never reconnected in place.
type Session struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger

	writeTimeout time.Duration
	readTimeout  time.Duration

	messages chan []byte
	done     chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once

	mu   sync.RWMutex
	open bool
	err  error
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Messages yields inbound frames in delivery order. The channel is closed
// when the connection ends; Err then reports why.
func (s *Session) Messages() <-chan []byte {
	return s.messages
}

// Err returns the reason the read pump stopped, or nil while it runs.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// IsOpen reports whether the connection is still usable for writes.
func (s *Session) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Send writes a text frame.
func (s *Session) Send(data []byte) error {
	if !s.IsOpen() {
		return ErrNotOpen
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// SendJSON marshals v and writes it as a text frame.
func (s *Session) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return s.Send(data)
}

// Close sends a close frame and releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.markClosed(ErrSessionClosed)
		close(s.done)

		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()

		err = s.conn.Close()
		s.logger.Debug("websocket closed")
	})
	return err
}

func (s *Session) readLoop() {
	defer close(s.messages)

	for {
		if s.readTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn("websocket read error", zap.Error(err))
				s.markClosed(err)
			}
			return
		}

		select {
		case s.messages <- data:
		case <-s.done:
			return
		}
	}
}

// markClosed records the first cause only.
func (s *Session) markClosed(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	if s.err == nil {
		s.err = cause
	}
}

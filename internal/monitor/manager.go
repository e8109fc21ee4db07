// Package monitor keeps a single authenticated session to the Polymarket
// user channel alive and turns its trade/order frames into notifications.
//
// All session state is owned by one run-loop goroutine. Heartbeat and
// reconnect are a ticker and a timer selected on by that loop, so leaving a
// state cancels them synchronously.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"polynotify/internal/format"
	"polynotify/pkg/polymarket"

	"go.uber.org/zap"
)

var ErrAlreadyRunning = errors.New("monitor already running")

// outboxSize bounds the alerts queued behind a slow notifier before the run
// loop waits for the notifier to catch up.
const outboxSize = 256

// Config holds the session policy of a Manager.
type Config struct {
	Auth                 polymarket.Auth
	HeartbeatInterval    time.Duration  // PING cadence while connected
	ReconnectDelay       time.Duration  // fixed wait between attempts
	MaxReconnectAttempts int            // attempt budget before giving up
	NotifyTimeout        time.Duration  // upper bound for one notification
	Location             *time.Location // zone used in rendered timestamps
}

// DefaultConfig returns the production policy: 10s heartbeat, 5s between
// attempts, 10 attempts.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:    10 * time.Second,
		ReconnectDelay:       5 * time.Second,
		MaxReconnectAttempts: 10,
		NotifyTimeout:        15 * time.Second,
		Location:             time.UTC,
	}
}

// Manager owns the session lifecycle: connect, subscribe, heartbeat,
// dispatch, reconnect and give up.
type Manager struct {
	cfg      Config
	dialer   Dialer
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	state    atomic.Int32
	attempts atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// Owned by the run loop.
	session   Session
	heartbeat *time.Ticker
	reconnect *time.Timer
	outbox    chan string
}

// NewManager creates a stopped Manager.
func NewManager(cfg Config, dialer Dialer, notifier Notifier, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultConfig().NotifyTimeout
	}
	return &Manager{
		cfg:      cfg,
		dialer:   dialer,
		notifier: notifier,
		logger:   logger.Named("monitor"),
		now:      time.Now,
	}
}

// Start launches the run loop. It may be called again once the loop has
// halted (after Stop or after giving up), which starts a fresh attempt budget.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil && !isClosed(m.done) {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.attempts.Store(0)
	m.setState(StateDisconnected)

	m.outbox = make(chan string, outboxSize)
	delivered := make(chan struct{})
	go m.deliver(m.outbox, delivered)

	m.logger.Info("monitor starting",
		zap.Duration("heartbeat", m.cfg.HeartbeatInterval),
		zap.Duration("reconnect_delay", m.cfg.ReconnectDelay),
		zap.Int("max_attempts", m.cfg.MaxReconnectAttempts),
	)

	go m.run(loopCtx, m.done, delivered)
	return nil
}

// Stop tears the session down and waits for the run loop to exit. No
// reconnect is scheduled afterwards. Calling Stop more than once, or before
// Start, is harmless.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the run loop exits. Nil before the first Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Attempts returns the number of reconnect attempts since the last
// successful connection.
func (m *Manager) Attempts() int {
	return int(m.attempts.Load())
}

func (m *Manager) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	if prev != s {
		m.logger.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

func (m *Manager) run(ctx context.Context, done, delivered chan struct{}) {
	defer close(done)
	defer func() {
		close(m.outbox)
		<-delivered
	}()
	defer m.teardown()

	m.connect(ctx)

	for m.State() != StateGivenUp {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			m.setState(StateStopped)
			return

		case frame, ok := <-m.inbound():
			if !ok {
				m.handleDisconnect()
				continue
			}
			m.dispatch(frame)

		case <-m.heartbeatC():
			m.sendHeartbeat()

		case <-m.reconnectC():
			m.reconnect = nil
			m.connect(ctx)
		}
	}

	m.logger.Warn("monitor halted, manual restart required")
}

// connect dials a new session. Any failure is handled as a disconnect.
func (m *Manager) connect(ctx context.Context) {
	m.setState(StateConnecting)

	session, err := m.dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("failed to connect", zap.Error(err), zap.Int("attempt", m.Attempts()))
		m.setState(StateDisconnected)
		m.scheduleReconnect()
		return
	}

	m.session = session
	m.attempts.Store(0)
	m.setState(StateConnected)
	m.logger.Info("connected", zap.String("session", session.ID()))

	if err := m.subscribe(); err != nil {
		m.logger.Warn("failed to send subscription", zap.String("session", session.ID()), zap.Error(err))
		m.handleDisconnect()
		return
	}

	m.startHeartbeat()
}

func (m *Manager) subscribe() error {
	frame, err := marshalSubscription(m.cfg.Auth)
	if err != nil {
		return err
	}

	m.logger.Info("sending subscription",
		zap.String("api_key", m.cfg.Auth.MaskedKey()),
		zap.Int("secret_len", len(m.cfg.Auth.Secret)),
		zap.Int("passphrase_len", len(m.cfg.Auth.Passphrase)),
	)
	return m.session.Send(frame)
}

// handleDisconnect discards the current session and schedules the next attempt.
func (m *Manager) handleDisconnect() {
	m.stopHeartbeat()

	if m.session != nil {
		m.logger.Warn("session closed",
			zap.String("session", m.session.ID()),
			zap.NamedError("cause", m.session.Err()),
		)
		_ = m.session.Close()
		m.session = nil
	}

	m.setState(StateDisconnected)
	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	if m.Attempts() >= m.cfg.MaxReconnectAttempts {
		m.giveUp()
		return
	}

	n := m.attempts.Add(1)
	m.logger.Info("reconnecting",
		zap.Duration("delay", m.cfg.ReconnectDelay),
		zap.Int32("attempt", n),
		zap.Int("max_attempts", m.cfg.MaxReconnectAttempts),
	)
	m.reconnect = time.NewTimer(m.cfg.ReconnectDelay)
}

func (m *Manager) giveUp() {
	m.setState(StateGivenUp)
	m.logger.Error("max reconnection attempts reached", zap.Int("max_attempts", m.cfg.MaxReconnectAttempts))
	m.notify(format.GivenUp(m.cfg.MaxReconnectAttempts, m.now(), m.cfg.Location))
}

// teardown releases every timer and the session. Idempotent.
func (m *Manager) teardown() {
	m.stopHeartbeat()

	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}

	if m.session != nil {
		if err := m.session.Close(); err != nil {
			m.logger.Debug("session close", zap.Error(err))
		}
		m.session = nil
	}
}

func (m *Manager) startHeartbeat() {
	m.stopHeartbeat()
	m.heartbeat = time.NewTicker(m.cfg.HeartbeatInterval)
}

func (m *Manager) stopHeartbeat() {
	if m.heartbeat != nil {
		m.heartbeat.Stop()
		m.heartbeat = nil
	}
}

// sendHeartbeat writes PING only if the transport still reports itself open.
// A failed write is left to the read side to detect.
func (m *Manager) sendHeartbeat() {
	if m.session == nil || !m.session.IsOpen() {
		return
	}
	if err := m.session.Send([]byte(polymarket.PingFrame)); err != nil {
		m.logger.Debug("heartbeat send failed", zap.Error(err))
	}
}

// notify queues text for delivery in the order the loop produced it. It only
// blocks once outboxSize alerts are already waiting.
func (m *Manager) notify(text string) {
	select {
	case m.outbox <- text:
	default:
		m.logger.Warn("notification backlog full, waiting for notifier", zap.Int("backlog", cap(m.outbox)))
		m.outbox <- text
	}
}

// deliver sends queued alerts one at a time until outbox is closed and drained.
func (m *Manager) deliver(outbox <-chan string, delivered chan<- struct{}) {
	defer close(delivered)

	for text := range outbox {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.NotifyTimeout)
		ok := m.notifier.Send(ctx, text)
		cancel()

		if !ok {
			m.logger.Warn("notification not delivered")
		}
	}
}

// Nil channels block forever in select, which disables the matching case.

func (m *Manager) inbound() <-chan []byte {
	if m.session == nil {
		return nil
	}
	return m.session.Messages()
}

func (m *Manager) heartbeatC() <-chan time.Time {
	if m.heartbeat == nil {
		return nil
	}
	return m.heartbeat.C
}

func (m *Manager) reconnectC() <-chan time.Time {
	if m.reconnect == nil {
		return nil
	}
	return m.reconnect.C
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

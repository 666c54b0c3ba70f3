package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnectionManager owns the single broker connection and channel of a process.
// Build one at startup and hand it to every publisher or consumer.
type ConnectionManager struct {
	url      string
	dial     Dialer
	topology Declarer
	logger   *zap.Logger

	connectMu sync.Mutex

	mu      sync.RWMutex
	conn    Connection
	channel Channel
}

// NewConnectionManager builds a manager. A nil dial uses DialAMQP.
func NewConnectionManager(url string, topology Declarer, dial Dialer, logger *zap.Logger) *ConnectionManager {
	if dial == nil {
		dial = DialAMQP
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{url: url, dial: dial, topology: topology, logger: logger}
}

// Connect opens the connection and channel and declares the topology.
// It returns immediately when already connected. Failures are returned to the
// caller, which owns any retry policy.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.IsConnected() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.logger.Info("connecting to rabbitmq", zap.String("url", redactURL(m.url)))
	conn, err := m.dial(m.url)
	if err != nil {
		m.logger.Error("failed to connect to rabbitmq", zap.Error(err))
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		m.logger.Error("failed to open rabbitmq channel", zap.Error(err))
		return fmt.Errorf("open channel: %w", err)
	}

	if m.topology != nil {
		if err := m.topology.Declare(ch); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			m.logger.Error("failed to declare rabbitmq topology", zap.Error(err))
			return fmt.Errorf("declare topology: %w", err)
		}
	}

	m.mu.Lock()
	m.conn, m.channel = conn, ch
	m.mu.Unlock()

	m.watch(conn, ch)
	m.logger.Info("connected to rabbitmq")
	return nil
}

// watch clears the cached handles once the broker closes either of them.
func (m *ConnectionManager) watch(conn Connection, ch Channel) {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	go func() {
		channelOnly := false
		select {
		case amqpErr, ok := <-connClosed:
			if ok && amqpErr != nil {
				m.logger.Error("rabbitmq connection error", zap.Error(amqpErr))
			}
			m.logger.Warn("rabbitmq connection closed")
		case amqpErr, ok := <-chClosed:
			if ok && amqpErr != nil {
				m.logger.Error("rabbitmq channel error", zap.Error(amqpErr))
			}
			m.logger.Warn("rabbitmq channel closed")
			channelOnly = true
		}

		if m.clearIfCurrent(conn) && channelOnly {
			if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
				m.logger.Warn("closing orphaned rabbitmq connection", zap.Error(err))
			}
		}
	}()
}

func (m *ConnectionManager) clearIfCurrent(conn Connection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		return false
	}
	m.conn, m.channel = nil, nil
	return true
}

// Close closes the channel then the connection. Errors are logged, never
// returned, and cached state is always cleared. It gives up waiting when ctx ends.
func (m *ConnectionManager) Close(ctx context.Context) {
	m.mu.Lock()
	conn, ch := m.conn, m.channel
	m.conn, m.channel = nil, nil
	m.mu.Unlock()

	if conn == nil && ch == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if ch != nil {
			if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
				m.logger.Error("error closing rabbitmq channel", zap.Error(err))
			}
		}
		if conn != nil {
			if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
				m.logger.Error("error closing rabbitmq connection", zap.Error(err))
			}
		}
	}()

	select {
	case <-done:
		m.logger.Info("rabbitmq connection closed gracefully")
	case <-ctx.Done():
		m.logger.Error("timed out closing rabbitmq connection", zap.Error(ctx.Err()))
	}
}

// Channel returns the current channel, or nil when not connected.
func (m *ConnectionManager) Channel() Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.channel
}

// IsConnected reports whether both connection and channel are present.
func (m *ConnectionManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn != nil && m.channel != nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}

package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"polynotify/internal/format"
	"polynotify/pkg/polymarket"

	"go.uber.org/zap"
)

func marshalSubscription(auth polymarket.Auth) ([]byte, error) {
	frame, err := json.Marshal(polymarket.NewUserSubscription(auth))
	if err != nil {
		return nil, fmt.Errorf("marshal subscription: %w", err)
	}
	return frame, nil
}

// dispatch handles one inbound frame. Nothing here changes session state:
// bad frames are logged and dropped.
func (m *Manager) dispatch(frame []byte) {
	trimmed := bytes.TrimSpace(frame)

	if string(trimmed) == polymarket.PongFrame {
		return
	}

	// The channel may batch several events into one JSON array.
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			m.logger.Warn("dropping malformed frame", zap.Error(err), zap.ByteString("raw", trimmed))
			return
		}
		for _, raw := range batch {
			m.dispatchEvent(raw)
		}
		return
	}

	m.dispatchEvent(trimmed)
}

func (m *Manager) dispatchEvent(raw []byte) {
	var env polymarket.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		m.logger.Warn("dropping malformed frame", zap.Error(err), zap.ByteString("raw", raw))
		return
	}

	switch env.Kind() {
	case polymarket.MessageTrade:
		m.handleTrade(raw)
	case polymarket.MessageOrder:
		m.handleOrder(raw)
	case polymarket.MessageSubscribed:
		m.logger.Info("subscribed to user channel")
	case polymarket.MessageError:
		m.handleServerError(raw)
	default:
		m.logger.Debug("ignoring unrecognized frame",
			zap.String("type", env.Type),
			zap.String("event_type", env.EventType),
		)
	}
}

func (m *Manager) handleTrade(raw []byte) {
	var msg polymarket.TradeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.logger.Warn("dropping malformed trade", zap.Error(err), zap.ByteString("raw", raw))
		return
	}

	ev := msg.Normalize(m.now())
	m.logger.Info("trade event",
		zap.String("id", ev.ID),
		zap.String("market", ev.Market),
		zap.String("price", ev.Price),
		zap.String("size", ev.Size),
		zap.String("side", ev.Side),
	)
	m.notify(format.Trade(ev, m.cfg.Location))
}

func (m *Manager) handleOrder(raw []byte) {
	var msg polymarket.OrderMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.logger.Warn("dropping malformed order", zap.Error(err), zap.ByteString("raw", raw))
		return
	}

	ev := msg.Normalize(m.now())
	if !ev.IsFill() {
		m.logger.Debug("suppressing order snapshot",
			zap.String("id", ev.ID),
			zap.String("event_type", ev.EventType),
		)
		return
	}

	m.logger.Info("order event",
		zap.String("id", ev.ID),
		zap.String("market", ev.Market),
		zap.String("size_matched", ev.SizeMatched),
		zap.String("event_type", ev.EventType),
	)
	m.notify(format.Order(ev, m.cfg.Location))
}

func (m *Manager) handleServerError(raw []byte) {
	var msg polymarket.ErrorMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.logger.Debug("error frame has unexpected shape, forwarding raw text", zap.Error(err))
	}

	m.logger.Error("server error frame", zap.String("message", msg.Text()), zap.ByteString("raw", raw))

	detail := msg.Text()
	if detail == "" {
		detail = string(raw)
	}
	m.notify(format.Error("Server error: "+detail, m.now(), m.cfg.Location))
}

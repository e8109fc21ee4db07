package monitor

import (
	"context"

	"polynotify/pkg/polymarket"
)

// Session is the live streaming connection as seen by the Manager.
type Session interface {
	ID() string
	Send(data []byte) error
	Messages() <-chan []byte
	Err() error
	IsOpen() bool
	Close() error
}

// Dialer opens a fresh Session per call.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// Notifier delivers alert text. It reports success and never panics.
type Notifier interface {
	Send(ctx context.Context, text string) bool
}

// polymarketDialer adapts *polymarket.Dialer to Dialer.
type polymarketDialer struct {
	d *polymarket.Dialer
}

// NewPolymarketDialer wraps the websocket dialer for use by the Manager.
func NewPolymarketDialer(d *polymarket.Dialer) Dialer {
	return polymarketDialer{d: d}
}

func (p polymarketDialer) Dial(ctx context.Context) (Session, error) {
	s, err := p.d.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

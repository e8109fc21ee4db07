package polymarket

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// defaultTradeType is used when a trade frame carries no type of its own.
const defaultTradeType = "TRADE"

// TradeEvent is a normalized trade, ready for formatting.
type TradeEvent struct {
	ID        string
	Market    string
	Price     string
	Size      string
	Status    string
	Side      string
	Outcome   string
	Type      string
	Timestamp time.Time
}

// OrderEvent is a normalized order update, ready for formatting.
type OrderEvent struct {
	ID           string
	Market       string
	Price        string
	OriginalSize string
	SizeMatched  string
	Side         string
	Outcome      string
	Type         string
	EventType    string
	Timestamp    time.Time
}

// Normalize resolves field aliases. now is used when the frame has no timestamp.
func (m TradeMessage) Normalize(now time.Time) TradeEvent {
	typ := m.Type.String()
	if typ == "" {
		typ = defaultTradeType
	}
	return TradeEvent{
		ID:        firstNonEmpty(m.ID, m.TradeID),
		Market:    firstNonEmpty(m.Market, m.AssetID),
		Price:     m.Price.String(),
		Size:      m.Size.String(),
		Status:    m.Status.String(),
		Side:      m.Side.String(),
		Outcome:   m.Outcome.String(),
		Type:      typ,
		Timestamp: ParseTimestamp(m.Timestamp.String(), now),
	}
}

// Normalize resolves field aliases. now is used when the frame has no timestamp.
func (m OrderMessage) Normalize(now time.Time) OrderEvent {
	return OrderEvent{
		ID:           firstNonEmpty(m.ID, m.OrderID),
		Market:       firstNonEmpty(m.Market, m.AssetID),
		Price:        m.Price.String(),
		OriginalSize: firstNonEmpty(m.OriginalSize, m.Size),
		SizeMatched:  firstNonEmpty(m.SizeMatched, m.Matched),
		Side:         m.Side.String(),
		Outcome:      m.Outcome.String(),
		Type:         m.Type.String(),
		EventType:    m.EventType.String(),
		Timestamp:    ParseTimestamp(m.Timestamp.String(), now),
	}
}

// HasUpdateMarker reports whether the frame is flagged as an order update.
// The marker is read from event_type, and from type for frames that put the
// "order" discriminator in event_type.
func (e OrderEvent) HasUpdateMarker() bool {
	return strings.EqualFold(e.EventType, OrderUpdateMarker) ||
		strings.EqualFold(e.Type, OrderUpdateMarker)
}

// MatchedSize parses SizeMatched. Missing or malformed values count as zero.
func (e OrderEvent) MatchedSize() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(e.SizeMatched))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsFill reports whether the order frame is worth a notification: an explicit
// update, or any nonzero matched size. Zero-size snapshots are noise.
func (e OrderEvent) IsFill() bool {
	return e.HasUpdateMarker() || e.MatchedSize().IsPositive()
}

// Notional returns price * size when both parse as decimals.
func (e TradeEvent) Notional() (decimal.Decimal, bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(e.Price))
	if err != nil {
		return decimal.Zero, false
	}
	size, err := decimal.NewFromString(strings.TrimSpace(e.Size))
	if err != nil {
		return decimal.Zero, false
	}
	return price.Mul(size), true
}

// ParseTimestamp accepts unix seconds, unix milliseconds or RFC3339.
// Anything else yields fallback.
func ParseTimestamp(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n <= 0 {
			return fallback
		}
		// 1e12 ms is September 2001; second-based values stay far below it
		if n >= 1e12 {
			return time.UnixMilli(n)
		}
		return time.Unix(n, 0)
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
		if f >= 1e12 {
			return time.UnixMilli(int64(f))
		}
		sec := int64(f)
		return time.Unix(sec, int64((f-float64(sec))*1e9))
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}

	return fallback
}

func firstNonEmpty(values ...FlexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

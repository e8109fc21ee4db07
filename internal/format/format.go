// Package format renders notifier events as Telegram HTML messages.
// Every function is pure: same input, same text, no I/O.
package format

import (
	"fmt"
	"html"
	"strings"
	"time"

	"polynotify/pkg/polymarket"
)

// Placeholder replaces any missing field.
const Placeholder = "N/A"

const timeLayout = "2006-01-02 15:04:05"

// Trade renders a filled trade.
func Trade(ev polymarket.TradeEvent, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("<b>🎯 Polymarket trade filled</b>\n\n")
	line(&b, "📅 Time", stamp(ev.Timestamp, loc))
	code(&b, "🆔 Trade ID", ev.ID)
	code(&b, "📊 Market", ev.Market)
	line(&b, "💰 Price", value(ev.Price))
	line(&b, "📦 Size", value(ev.Size))
	if notional, ok := ev.Notional(); ok {
		line(&b, "💵 Notional", notional.String())
	}
	line(&b, "📈 Status", value(ev.Status))
	if ev.Side != "" {
		line(&b, "🔄 Side", side(ev.Side))
	}
	if ev.Outcome != "" {
		line(&b, "🎲 Outcome", value(ev.Outcome))
	}
	if ev.Type != "" {
		line(&b, "📝 Type", value(ev.Type))
	}

	return b.String()
}

// Order renders an order update.
func Order(ev polymarket.OrderEvent, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("<b>📋 Polymarket order update</b>\n\n")
	line(&b, "📅 Time", stamp(ev.Timestamp, loc))
	code(&b, "🆔 Order ID", ev.ID)
	code(&b, "📊 Market", ev.Market)
	line(&b, "💰 Price", value(ev.Price))
	line(&b, "📦 Original size", value(ev.OriginalSize))
	line(&b, "✅ Matched", value(ev.SizeMatched))
	if ev.Side != "" {
		line(&b, "🔄 Side", side(ev.Side))
	}
	if ev.Outcome != "" {
		line(&b, "🎲 Outcome", value(ev.Outcome))
	}
	line(&b, "📈 Event type", value(ev.EventType))

	return b.String()
}

// Startup announces that the monitor is running.
func Startup(at time.Time, loc *time.Location) string {
	return "<b>🚀 Polymarket monitor started</b>\n\n" +
		"📅 Started: " + stamp(at, loc) + "\n" +
		"✅ Listening for order fills..."
}

// Error renders an operational error alert.
func Error(msg string, at time.Time, loc *time.Location) string {
	return "<b>❌ Polymarket monitor error</b>\n\n" +
		"⚠️ Error: " + value(msg) + "\n" +
		"📅 Time: " + stamp(at, loc)
}

// GivenUp is the final alert sent when the reconnect budget is exhausted.
func GivenUp(attempts int, at time.Time, loc *time.Location) string {
	return Error(
		fmt.Sprintf("Max reconnection attempts reached (%d). Please restart the monitor.", attempts),
		at, loc,
	)
}

func line(b *strings.Builder, label, v string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(v)
	b.WriteByte('\n')
}

func code(b *strings.Builder, label, v string) {
	line(b, label, "<code>"+value(v)+"</code>")
}

// value escapes v for HTML parse mode, substituting the placeholder when empty.
func value(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Placeholder
	}
	return html.EscapeString(v)
}

func side(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return "Buy"
	case "SELL":
		return "Sell"
	default:
		return value(s)
	}
}

func stamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout)
}

package polymarket

import (
	"encoding/json"
	"testing"
	"time"
)

// go test -v --run TestEnvelopeKind
func TestEnvelopeKind(t *testing.T) {
	tests := []struct {
		raw  string
		want MessageType
	}{
		{`{"type":"trade"}`, MessageTrade},
		{`{"event_type":"trade","type":"TRADE"}`, MessageTrade},
		{`{"type":"order","event_type":"UPDATE"}`, MessageOrder},
		{`{"event_type":"order","type":"PLACEMENT"}`, MessageOrder},
		{`{"type":"subscribed"}`, MessageSubscribed},
		{`{"type":"error","message":"bad auth"}`, MessageError},
		{`{"type":"book"}`, MessageUnknown},
		{`{}`, MessageUnknown},
	}

	for _, tt := range tests {
		var env Envelope
		if err := json.Unmarshal([]byte(tt.raw), &env); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if got := env.Kind(); got != tt.want {
			t.Errorf("Kind(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// go test -v --run TestTradeNormalize
func TestTradeNormalize(t *testing.T) {
	raw := `{"event_type":"trade","trade_id":"t-9","asset_id":"123","price":0.42,"size":"15","side":"BUY","timestamp":"1700000000000"}`

	var msg TradeMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	now := time.Unix(1, 0)
	ev := msg.Normalize(now)

	if ev.ID != "t-9" || ev.Market != "123" {
		t.Errorf("aliases not resolved: %+v", ev)
	}
	if ev.Price != "0.42" {
		t.Errorf("numeric price not kept as text: %q", ev.Price)
	}
	if ev.Type != "TRADE" {
		t.Errorf("Type = %q, want default TRADE", ev.Type)
	}
	if !ev.Timestamp.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Timestamp = %v", ev.Timestamp)
	}

	notional, ok := ev.Notional()
	if !ok || notional.String() != "6.3" {
		t.Errorf("Notional = %v, %v; want 6.3", notional, ok)
	}
}

// go test -v --run TestOrderIsFill
func TestOrderIsFill(t *testing.T) {
	tests := []struct {
		name string
		ev   OrderEvent
		want bool
	}{
		{"zero snapshot", OrderEvent{SizeMatched: "0"}, false},
		{"missing matched", OrderEvent{}, false},
		{"malformed matched", OrderEvent{SizeMatched: "abc"}, false},
		{"partial fill", OrderEvent{SizeMatched: "2.5"}, true},
		{"update marker overrides zero", OrderEvent{EventType: "UPDATE", SizeMatched: "0"}, true},
		{"update marker in type", OrderEvent{EventType: "order", Type: "UPDATE"}, true},
		{"placement", OrderEvent{EventType: "order", Type: "PLACEMENT", SizeMatched: "0"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.IsFill(); got != tt.want {
				t.Errorf("IsFill() = %v, want %v", got, tt.want)
			}
		})
	}
}

// go test -v --run TestOrderNormalizeAliases
func TestOrderNormalizeAliases(t *testing.T) {
	raw := `{"type":"order","order_id":"o-1","market":"M","size":"100","matched":"40"}`

	var msg OrderMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev := msg.Normalize(time.Now())

	if ev.ID != "o-1" || ev.OriginalSize != "100" || ev.SizeMatched != "40" {
		t.Errorf("aliases not resolved: %+v", ev)
	}
	if !ev.IsFill() {
		t.Error("expected matched=40 to count as fill")
	}
}

// go test -v --run TestParseTimestamp
func TestParseTimestamp(t *testing.T) {
	fallback := time.Unix(42, 0)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"", fallback},
		{"garbage", fallback},
		{"0", fallback},
		{"1700000000", time.Unix(1700000000, 0)},
		{"1700000000123", time.UnixMilli(1700000000123)},
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := ParseTimestamp(tt.raw, fallback); !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

// go test -v --run TestMaskedKey
func TestMaskedKey(t *testing.T) {
	if got := (Auth{APIKey: "abcdef12"}).MaskedKey(); got != "abcd****" {
		t.Errorf("MaskedKey = %q", got)
	}
	if got := (Auth{APIKey: "ab"}).MaskedKey(); got != "**" {
		t.Errorf("MaskedKey = %q", got)
	}
}

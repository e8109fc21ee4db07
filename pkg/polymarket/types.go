package polymarket

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Auth carries the API credential triple sent in the subscribe frame.
type Auth struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// MaskedKey returns the API key with all but its first four characters hidden.
func (a Auth) MaskedKey() string {
	if len(a.APIKey) <= 4 {
		return strings.Repeat("*", len(a.APIKey))
	}
	return a.APIKey[:4] + strings.Repeat("*", len(a.APIKey)-4)
}

// SubscribeMessage is sent once per successful connection.
// An empty Markets list subscribes to every market of the account.
type SubscribeMessage struct {
	Markets []string `json:"markets"`
	Type    string   `json:"type"`
	Auth    Auth     `json:"auth"`
}

// NewUserSubscription builds the subscribe/auth frame for the user channel.
func NewUserSubscription(auth Auth) SubscribeMessage {
	return SubscribeMessage{
		Markets: []string{},
		Type:    ChannelUser,
		Auth:    auth,
	}
}

// Envelope holds only the discriminator fields of an inbound frame.
type Envelope struct {
	Type      string `json:"type"`
	EventType string `json:"event_type"`
}

// Kind classifies the frame. Trade and order discriminators may appear in
// either field; subscription acks and errors only use "type".
func (e Envelope) Kind() MessageType {
	typ := ParseMessageType(e.Type)
	evt := ParseMessageType(e.EventType)

	switch {
	case typ == MessageTrade || evt == MessageTrade:
		return MessageTrade
	case typ == MessageOrder || evt == MessageOrder:
		return MessageOrder
	case typ == MessageSubscribed:
		return MessageSubscribed
	case typ == MessageError:
		return MessageError
	default:
		return MessageUnknown
	}
}

// FlexString decodes a JSON string, number or null into its text form.
// The feed is not consistent about quoting numeric fields.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// String returns the raw text value.
func (f FlexString) String() string {
	return string(f)
}

// TradeMessage is the raw trade frame. Several fields have legacy aliases.
type TradeMessage struct {
	ID        FlexString `json:"id"`
	TradeID   FlexString `json:"trade_id"`
	Market    FlexString `json:"market"`
	AssetID   FlexString `json:"asset_id"`
	Price     FlexString `json:"price"`
	Size      FlexString `json:"size"`
	Status    FlexString `json:"status"`
	Side      FlexString `json:"side"`
	Outcome   FlexString `json:"outcome"`
	Type      FlexString `json:"type"`
	EventType FlexString `json:"event_type"`
	Timestamp FlexString `json:"timestamp"`
}

// OrderMessage is the raw order frame.
type OrderMessage struct {
	ID           FlexString `json:"id"`
	OrderID      FlexString `json:"order_id"`
	Market       FlexString `json:"market"`
	AssetID      FlexString `json:"asset_id"`
	Price        FlexString `json:"price"`
	OriginalSize FlexString `json:"original_size"`
	Size         FlexString `json:"size"`
	SizeMatched  FlexString `json:"size_matched"`
	Matched      FlexString `json:"matched"`
	Side         FlexString `json:"side"`
	Outcome      FlexString `json:"outcome"`
	Type         FlexString `json:"type"`
	EventType    FlexString `json:"event_type"`
	Timestamp    FlexString `json:"timestamp"`
}

// ErrorMessage is a server error frame. Fields beyond "type" vary.
type ErrorMessage struct {
	Type    string     `json:"type"`
	Message FlexString `json:"message"`
	Error   FlexString `json:"error"`
	Code    FlexString `json:"code"`
}

// Text returns the most descriptive field of the error frame.
func (m ErrorMessage) Text() string {
	switch {
	case m.Message != "":
		return m.Message.String()
	case m.Error != "":
		return m.Error.String()
	default:
		return ""
	}
}

package polymarket

import "strings"

// DefaultUserChannelURL is the authenticated user channel of the CLOB websocket.
const DefaultUserChannelURL = "wss://ws-subscriptions-clob.polymarket.com/ws/user"

// Liveness frames are plain text, not JSON.
const (
	PingFrame = "PING"
	PongFrame = "PONG"
)

// ChannelUser is the subscription type for account-scoped trade/order events.
const ChannelUser = "user"

// OrderUpdateMarker marks an order frame as an update of an existing order.
const OrderUpdateMarker = "UPDATE"

// MessageType is the discriminator carried in the "type" or "event_type" field.
type MessageType string

const (
	MessageTrade      MessageType = "trade"
	MessageOrder      MessageType = "order"
	MessageSubscribed MessageType = "subscribed"
	MessageError      MessageType = "error"
	MessageUnknown    MessageType = ""
)

// knownMessageTypes lists the discriminators the notifier reacts to.
var knownMessageTypes = map[MessageType]struct{}{
	MessageTrade:      {},
	MessageOrder:      {},
	MessageSubscribed: {},
	MessageError:      {},
}

// IsKnown reports whether t is one of the handled discriminators.
func (t MessageType) IsKnown() bool {
	_, ok := knownMessageTypes[t]
	return ok
}

// ParseMessageType normalizes a raw discriminator value.
func ParseMessageType(s string) MessageType {
	t := MessageType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsKnown() {
		return MessageUnknown
	}
	return t
}

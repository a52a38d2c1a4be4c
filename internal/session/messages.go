package session

import (
	"encoding/json"
)

const (
	actionJoin    = "join"
	actionLeave   = "leave"
	actionMessage = "message"
	actionJoined  = "joined"
	actionLeft    = "left"
)

// Frame is one JSON message on the wire, in both directions. Action is
// the discriminator; a frame with no action but a non-empty Error field
// is a server-reported failure.
type Frame struct {
	Action     string `json:"action,omitempty"`
	TradeId    int    `json:"trade_id,omitempty"`
	SenderId   int    `json:"sender_id,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

func JoinCommand(tradeId, senderId int) *Frame {
	return &Frame{
		Action:   actionJoin,
		TradeId:  tradeId,
		SenderId: senderId,
	}
}

func LeaveCommand(tradeId int) *Frame {
	return &Frame{
		Action:  actionLeave,
		TradeId: tradeId,
	}
}

func SendCommand(message string) *Frame {
	return &Frame{
		Action:  actionMessage,
		Message: message,
	}
}

func serializeFrame(f *Frame) ([]byte, error) {
	return json.Marshal(f)
}

// Event is a decoded inbound frame. Exactly one field is non-nil.
type Event struct {
	Joined  *JoinedEvent
	Left    *LeftEvent
	Message *MessageEvent
	Error   *ErrorEvent
}

// JoinedEvent confirms room membership.
type JoinedEvent struct {
	TradeId int
}

// LeftEvent confirms room departure.
type LeftEvent struct {
	TradeId int
}

// MessageEvent is a chat message delivered to a tracked room.
type MessageEvent struct {
	TradeId    int
	SenderId   int
	SenderName string
	Body       string
}

// ErrorEvent is a non-fatal server-reported failure.
type ErrorEvent struct {
	Detail string
}

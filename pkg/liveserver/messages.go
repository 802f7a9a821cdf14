// Package liveserver serves trading activity to monitoring dashboards over
// WebSocket.
package liveserver

// Message is one WebSocket frame sent to dashboard clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MessageType constants
const (
	TypeQuote    = "quote"
	TypeFill     = "fill"
	TypeHedge    = "hedge"
	TypePosition = "position"
	TypeStatus   = "status"
)

// NewMessage creates a Message.
func NewMessage(msgType string, data interface{}) Message {
	return Message{Type: msgType, Data: data}
}

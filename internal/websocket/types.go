package websocket

// Message is the envelope of everything pushed to browsers
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

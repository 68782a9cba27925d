package websockets

import "github.com/chris/money-movement/pkg/bus"

// Message is what connected views receive. It only names the topic; the
// view re-fetches whatever it shows.
type Message struct {
	Type bus.Topic `json:"type"`
}

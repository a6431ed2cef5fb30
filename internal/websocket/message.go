package websocket

import "encoding/json"

// Frame is what a connected client receives: the channel and event a
// message was broadcast on and its JSON payload.
type Frame struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

package api

import (
	"context"
	"encoding/json"

	"github.com/coder/websocket"
)

// wsMessage is the envelope every WebSocket endpoint in spec.md §6 uses.
type wsMessage struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Index *int   `json:"index,omitempty"`
}

func writeWS(ctx context.Context, conn *websocket.Conn, msg wsMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, body)
}

// pumpIncoming reads (and discards, besides ping/pong) client frames until
// the connection closes or ctx is cancelled, then cancels cancel so the
// write side can stop. WebSocket is full-duplex: a connection whose
// client side is never read from accumulates unacknowledged control
// frames and eventually stalls, so every handler needs this loop even
// though it only cares about one-way server-to-client delivery.
func pumpIncoming(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, onPing func()) {
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var in wsMessage
		if json.Unmarshal(data, &in) == nil && in.Type == "ping" && onPing != nil {
			onPing()
		}
	}
}

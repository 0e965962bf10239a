package realtime

import "github.com/kindredapp/kindred/internal/websocket"

// SocketDialer returns a Dialer producing Socket.IO transports configured by
// opts, authenticated as the user passed to the Dialer.
func SocketDialer(opts websocket.Options) Dialer {
	return func(userID string) Transport {
		o := opts
		o.UserID = userID
		return websocket.NewClient(o)
	}
}

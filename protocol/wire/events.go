// Package wire defines the realtime event contract shared with the kindred
// server: event names, payload shapes and the record types carried by them.
//
// Event and field names are part of the wire contract and must match the
// server exactly.
package wire

// Transport lifecycle events raised by the Socket.IO client itself.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
)

// Inbound events (server -> client).
const (
	EventPresenceOnline  = "presence:online"
	EventPresenceOffline = "presence:offline"
	EventPresenceStatus  = "presence:status"

	EventMoodChanged     = "mood:changed"
	EventMoodPartnerMood = "mood:partnerMood"
	EventMoodMyMood      = "mood:myMood"

	EventScribbleReceived        = "scribble:received"
	EventScribbleSent            = "scribble:sent"
	EventScribbleError           = "scribble:error"
	EventScribblePartnerScribble = "scribble:partnerScribble"
)

// Outbound events (client -> server).
const (
	EventPresenceGetStatus  = "presence:getStatus"
	EventMoodGetPartner     = "mood:getPartner"
	EventMoodGetMyMood      = "mood:getMyMood"
	EventScribbleGetPartner = "scribble:getPartner"

	EventMoodUpdate   = "mood:update"
	EventNudgeSend    = "nudge:send"
	EventScribbleSend = "scribble:send"
)

// InboundEvents lists every server -> client application event, in the order
// handlers are registered on a fresh transport.
var InboundEvents = []string{
	EventPresenceOnline,
	EventPresenceOffline,
	EventPresenceStatus,
	EventMoodChanged,
	EventMoodPartnerMood,
	EventMoodMyMood,
	EventScribbleReceived,
	EventScribbleSent,
	EventScribbleError,
	EventScribblePartnerScribble,
}

// SnapshotRequests are emitted after every successful connect so the client
// never relies on state held from a previous connection.
var SnapshotRequests = []string{
	EventPresenceGetStatus,
	EventMoodGetPartner,
	EventMoodGetMyMood,
	EventScribbleGetPartner,
}

package hub

// Client -> server message types.
const (
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgPing        = "ping"
)

// Server -> client events the hub emits on its own; game events pass through
// under their published names.
const (
	EventState = "state" // snapshot sent on subscribe
	EventPong  = "pong"
	EventError = "error"
)

type ClientMessage struct {
	Type     string `json:"type"`
	GameCode string `json:"gameCode"`
}

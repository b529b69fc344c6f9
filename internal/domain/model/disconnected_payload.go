package model

// DisconnectedPayload is the last frame a stream client gets when the server ends its session.
type DisconnectedPayload struct {
	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"` // registry close reason
}

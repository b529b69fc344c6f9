package model

// ConnectedPayload is sent to a stream client once its subscription is live.
type ConnectedPayload struct {
	ConnectionID  string `json:"connection_id"`
	UserID        string `json:"user_id"`
	Role          Role   `json:"role"`
	ServerVersion string `json:"server_version"`
}

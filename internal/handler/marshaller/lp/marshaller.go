package lpmarshaller

import (
	"github.com/goccy/go-json"
)

// Response is the long-poll batch. Each element is a frame exactly as stream
// clients receive it, so both transports share one event shape.
type Response struct {
	Events []json.RawMessage `json:"events"`
}

// MarshallFrames joins already encoded frames into a single JSON batch.
func MarshallFrames(frames [][]byte) ([]byte, error) {
	res := Response{
		Events: make([]json.RawMessage, 0, len(frames)),
	}
	for _, f := range frames {
		res.Events = append(res.Events, json.RawMessage(f))
	}
	return json.Marshal(res)
}

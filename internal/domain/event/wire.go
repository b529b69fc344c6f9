package event

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/trackly/trackly-api/internal/domain/model"
)

// issueFrame is the JSON object stream clients receive for issue activity.
type issueFrame struct {
	Type      Kind        `json:"type"`
	EventID   string      `json:"event_id"`
	IssueID   string      `json:"issue_id"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      model.Issue `json:"data"`
}

type systemFrame struct {
	Type      Kind      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Encode serializes an event into a single-line JSON frame.
func Encode(ev Eventer) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("encode: nil event")
	}

	switch e := ev.(type) {
	case *IssueEvent:
		return json.Marshal(issueFrame{
			Type:      e.kind,
			EventID:   e.GetID(),
			IssueID:   e.issue.ID.String(),
			UserID:    e.actor.UserID.String(),
			UserName:  e.actor.Name,
			Timestamp: e.occurredAt,
			Data:      e.issue,
		})
	default:
		return json.Marshal(systemFrame{
			Type:      ev.GetKind(),
			Timestamp: ev.GetOccurredAt(),
			Data:      ev.GetPayload(),
		})
	}
}

// NewDelivery pairs an event with its encoded frame.
func NewDelivery(ev Eventer) (Delivery, error) {
	frame, err := Encode(ev)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{Event: ev, Frame: frame}, nil
}

package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedEnvelope = errors.New("malformed webhook envelope")

// Event is the first messaging event of an inbound envelope.
type Event struct {
	SenderID string
	Text     string
	// HasText is false for deliveries, reads and attachments.
	HasText bool
}

type envelope struct {
	Entry []struct {
		Messaging []struct {
			Sender *struct {
				ID *string `json:"id"`
			} `json:"sender"`
			Message *struct {
				Text *string `json:"text"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ParseEvent extracts entry[0].messaging[0] from body. Every failure wraps
// ErrMalformedEnvelope.
func ParseEvent(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(env.Entry) == 0 {
		return Event{}, fmt.Errorf("%w: no entry", ErrMalformedEnvelope)
	}
	if len(env.Entry[0].Messaging) == 0 {
		return Event{}, fmt.Errorf("%w: no messaging event", ErrMalformedEnvelope)
	}

	msg := env.Entry[0].Messaging[0]
	if msg.Sender == nil || msg.Sender.ID == nil {
		return Event{}, fmt.Errorf("%w: missing sender id", ErrMalformedEnvelope)
	}

	ev := Event{SenderID: *msg.Sender.ID}
	if msg.Message != nil && msg.Message.Text != nil {
		ev.Text = *msg.Message.Text
		ev.HasText = true
	}
	return ev, nil
}

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Sender delivers a text reply to a platform user.
type Sender interface {
	Send(ctx context.Context, recipientID, text string) error
}

// GraphSender posts replies through the Graph messages endpoint.
type GraphSender struct {
	baseURL     string
	accessToken string
	client      *http.Client
	log         *slog.Logger
}

func NewGraphSender(baseURL, accessToken string, log *slog.Logger) *GraphSender {
	return &GraphSender{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

type outboundMessage struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	MessagingType string `json:"messaging_type"`
}

// Send without an access token only logs the message it would have sent.
func (s *GraphSender) Send(ctx context.Context, recipientID, text string) error {
	if s.accessToken == "" {
		s.log.Warn("META_ACCESS_TOKEN not set, message not sent",
			"recipient_id", recipientID, "text", text)
		return nil
	}

	var payload outboundMessage
	payload.Recipient.ID = recipientID
	payload.Message.Text = text
	payload.MessagingType = "RESPONSE"

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := s.baseURL + "/me/messages?" + url.Values{"access_token": {s.accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("send message: status %d: %s", resp.StatusCode, respBody)
	}

	s.log.Info("message sent", "recipient_id", recipientID)
	return nil
}

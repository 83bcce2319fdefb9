package messaging

import (
	"context"
	"log/slog"
)

// Handler turns an inbound envelope into at most one reply. Failures are
// logged, never returned.
type Handler struct {
	replier *Replier
	sender  Sender
	log     *slog.Logger
}

func NewHandler(replier *Replier, sender Sender, log *slog.Logger) *Handler {
	return &Handler{replier: replier, sender: sender, log: log}
}

func (h *Handler) Handle(ctx context.Context, body []byte) {
	h.log.Debug("incoming webhook", "body", string(body))

	ev, err := ParseEvent(body)
	if err != nil {
		h.log.Warn("error processing webhook", "error", err)
		return
	}
	if !ev.HasText {
		h.log.Debug("webhook event without text", "sender_id", ev.SenderID)
		return
	}

	reply := h.replier.Reply(ctx, ev.Text)
	if err := h.sender.Send(ctx, ev.SenderID, reply); err != nil {
		h.log.Error("error sending reply", "sender_id", ev.SenderID, "error", err)
	}
}

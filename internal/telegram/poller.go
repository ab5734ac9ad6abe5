package telegram

import (
	"context"
	"log/slog"
	"time"
)

// Handler receives incoming bot updates.
type Handler interface {
	HandleMessage(msg Message)
	HandleCallback(cb CallbackQuery)
}

// Poller drives the bot by long-polling getUpdates and dispatching to a
// Handler. It replaces a webhook so the bot can run without public ingress.
type Poller struct {
	client   *Client
	handler  Handler
	retryGap time.Duration
	logger   *slog.Logger
}

// NewPoller constructs a poller. retryGap is the pause after a failed poll.
func NewPoller(client *Client, handler Handler, retryGap time.Duration, logger *slog.Logger) *Poller {
	if retryGap <= 0 {
		retryGap = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, handler: handler, retryGap: retryGap, logger: logger}
}

// Run polls until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, err := p.client.GetUpdates(offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("telegram poll failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryGap):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.dispatch(update)
		}
	}
}

func (p *Poller) dispatch(update Update) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("update handler panicked", "update_id", update.UpdateID, "panic", r)
		}
	}()
	switch {
	case update.CallbackQuery != nil:
		p.handler.HandleCallback(*update.CallbackQuery)
	case update.Message != nil:
		p.handler.HandleMessage(*update.Message)
	}
}

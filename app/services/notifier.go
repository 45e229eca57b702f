package services

import (
	"context"
	"fmt"
	"html"

	"folio/app/clients"
	"folio/app/events"
	"folio/app/logging"

	"github.com/goccy/go-json"
)

// Mailer sends email
type Mailer interface {
	Send(ctx context.Context, m clients.Mail) error
}

// Subscriber delivers events to handlers
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, h events.Handler) error
}

// NotifierConfig holds the addresses used for notification mail
type NotifierConfig struct {
	To   clients.Address
	From clients.Address
}

// Notifier emails the site owner about new comments
type Notifier struct {
	mailer Mailer
	cfg    NotifierConfig
}

func NewNotifier(mailer Mailer, cfg NotifierConfig) *Notifier {
	return &Notifier{mailer: mailer, cfg: cfg}
}

// Start subscribes the notifier to comment events until ctx is done.
func (n *Notifier) Start(ctx context.Context, sub Subscriber) error {
	return sub.Subscribe(ctx, events.TopicCommentCreated, n.handleCommentCreated)
}

func (n *Notifier) handleCommentCreated(ctx context.Context, payload []byte) error {
	var ev events.CommentCreated
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode comment event: %w", err)
	}
	if err := n.NotifyComment(ctx, ev); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("blog_url", ev.BlogURL).Msg("comment notification failed")
		return err
	}
	return nil
}

// NotifyComment sends the new comment email.
func (n *Notifier) NotifyComment(ctx context.Context, ev events.CommentCreated) error {
	if n.cfg.To.Email == "" {
		return nil
	}
	mail := clients.Mail{
		To:      n.cfg.To,
		From:    n.cfg.From,
		ReplyTo: n.cfg.From,
		Subject: "New comment on " + ev.BlogURL,
		HTML: fmt.Sprintf("<p>New comment on <b>%s</b> by <b>%s</b>: %s</p>",
			html.EscapeString(ev.BlogURL), html.EscapeString(ev.Author), html.EscapeString(ev.Text)),
	}
	return n.mailer.Send(ctx, mail)
}

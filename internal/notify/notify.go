// Package notify emails request owners when staff move their request forward.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/events"

	"github.com/mailersend/mailersend-go"
)

// Message is a rendered email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier turns lifecycle events into owner emails.
type Notifier struct {
	sender  Sender
	baseURL string
}

// New returns a Notifier that links back to baseURL.
func New(sender Sender, baseURL string) *Notifier {
	return &Notifier{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// Handle is an events.Handler. Events other than accepted and completed,
// and events without an owner email, are ignored.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) error {
	msg, ok := n.Render(ev)
	if !ok {
		return nil
	}
	return n.sender.Send(ctx, msg)
}

// Render builds the email for ev.
func (n *Notifier) Render(ev events.Event) (Message, bool) {
	if ev.OwnerEmail == "" {
		return Message{}, false
	}

	var subject, lead string
	switch ev.Type {
	case events.RequestAccepted:
		subject = fmt.Sprintf("Your request %q is in progress", ev.Title)
		lead = "A designer has accepted your request and started working on it."
	case events.RequestCompleted:
		subject = fmt.Sprintf("Your design for %q is ready", ev.Title)
		lead = "Your design is finished. You can view it in your requests."
	default:
		return Message{}, false
	}

	link := fmt.Sprintf("%s/requests/%d", n.baseURL, ev.RequestID)

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\n%s\n", ev.OwnerName, lead)
	if ev.AdminComment != "" {
		fmt.Fprintf(&text, "\nComment from the studio:\n%s\n", ev.AdminComment)
	}
	fmt.Fprintf(&text, "\n%s\n", link)

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hello %s,</p><p>%s</p>", html.EscapeString(ev.OwnerName), html.EscapeString(lead))
	if ev.AdminComment != "" {
		fmt.Fprintf(&body, "<p><strong>Comment from the studio:</strong><br>%s</p>", html.EscapeString(ev.AdminComment))
	}
	fmt.Fprintf(&body, `<p><a href="%s">Open request</a></p>`, html.EscapeString(link))

	return Message{
		To:      ev.OwnerEmail,
		ToName:  ev.OwnerName,
		Subject: subject,
		Text:    text.String(),
		HTML:    body.String(),
	}, true
}

// MailerSend sends through the MailerSend API.
type MailerSend struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
	timeout   time.Duration
}

// NewMailerSend returns a Sender authenticated with apiKey.
func NewMailerSend(apiKey, fromEmail, fromName string) *MailerSend {
	return &MailerSend{
		client:    mailersend.NewMailersend(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		timeout:   5 * time.Second,
	}
}

func (m *MailerSend) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.To}})
	message.SetSubject(msg.Subject)
	message.SetHTML(msg.HTML)
	message.SetText(msg.Text)

	if _, err := m.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "email not sent, no MailerSend key configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

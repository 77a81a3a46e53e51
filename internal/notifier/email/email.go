package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"prensa-go/internal/model"
)

// Mailer delivers prepared messages; *mail.Client satisfies it.
type Mailer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Notifier struct {
	mailer     Mailer
	sender     string
	recipients []string
}

func New(mailer Mailer, sender string, recipients []string) *Notifier {
	return &Notifier{mailer: mailer, sender: sender, recipients: recipients}
}

// NewSMTPClient connects with STARTTLS when offered and plain auth when a
// username is given.
func NewSMTPClient(host string, port int, username, password string) (*mail.Client, error) {
	options := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	return mail.NewClient(host, options...)
}

func (n *Notifier) Name() string {
	return "email"
}

func (n *Notifier) Notify(ctx context.Context, entry model.Entry) error {
	msg, err := n.buildMessage(entry)
	if err != nil {
		return err
	}
	if err := n.mailer.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (n *Notifier) buildMessage(entry model.Entry) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.sender); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(n.recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(entry.Title)
	msg.SetBodyString(mail.TypeTextPlain, formatBody(entry))
	return msg, nil
}

func formatBody(entry model.Entry) string {
	return fmt.Sprintf("%s\n\nFecha: %s\nEnlace: %s\n", entry.Title, entry.DisplayDate, entry.Link)
}

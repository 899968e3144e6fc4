package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type sendFunc func(ctx context.Context, msg *mail.SGMailV3) (int, error)

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Sandbox   bool
	AppURL    string
}

// SendGridNotifier emails the recipient resolved through the user directory.
type SendGridNotifier struct {
	users   ports.UserDirectory
	send    sendFunc
	from    *mail.Email
	sandbox bool
	appURL  string
}

func NewSendGridNotifier(cfg SendGridConfig, users ports.UserDirectory) (*SendGridNotifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.FromEmail == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	send := func(ctx context.Context, msg *mail.SGMailV3) (int, error) {
		resp, err := client.SendWithContext(ctx, msg)
		if err != nil {
			return 0, err
		}
		return resp.StatusCode, nil
	}
	return newSendGridNotifier(cfg, users, send), nil
}

func newSendGridNotifier(cfg SendGridConfig, users ports.UserDirectory, send sendFunc) *SendGridNotifier {
	name := cfg.FromName
	if name == "" {
		name = "Punta Leases"
	}
	return &SendGridNotifier{
		users:   users,
		send:    send,
		from:    mail.NewEmail(name, cfg.FromEmail),
		sandbox: cfg.Sandbox,
		appURL:  cfg.AppURL,
	}
}

func (n *SendGridNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	user, err := n.users.FindUserByID(ctx, notification.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if user.Email == "" {
		return fmt.Errorf("%w: recipient %s has no email", domain.ErrValidation, user.ID)
	}

	content := render(notification, user.Name, n.appURL)
	msg := mail.NewSingleEmail(n.from, content.Subject, mail.NewEmail(user.Name, user.Email), content.Text, content.HTML)
	if n.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	status, err := n.send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", domain.ErrDependencyUnavailable, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: sendgrid status %d", domain.ErrDependencyUnavailable, status)
	}
	return nil
}

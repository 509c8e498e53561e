package services

import (
	"context"
	"fmt"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP settings for outgoing mail.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// UserDirectory resolves the recipient of an event.
type UserDirectory interface {
	FindUser(ctx context.Context, userID uint) (*models.User, error)
}

// EmailNotifier mails refund events to the affected user.
type EmailNotifier struct {
	from   string
	sender MailSender
	users  UserDirectory
}

func NewEmailNotifier(cfg EmailConfig, users UserDirectory) *EmailNotifier {
	return &EmailNotifier{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		users:  users,
	}
}

// NewEmailNotifierWithSender is used when the SMTP transport is provided by
// the caller.
func NewEmailNotifierWithSender(from string, sender MailSender, users UserDirectory) *EmailNotifier {
	return &EmailNotifier{from: from, sender: sender, users: users}
}

func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	if event.Type != EventRefundCredited {
		return nil
	}
	user, err := n.users.FindUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("find user %d for refund mail: %w", event.UserID, err)
	}
	if user.Email == "" {
		return nil
	}

	name := user.FirstName
	if name == "" {
		name = user.Username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", fmt.Sprintf("Refund for order #%d", event.OrderID))
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>%s</p>
		<p>Amount refunded: <strong>&#8377;%s</strong></p>
		<p>Order reference: #%d</p>
	`, name, event.Message, utils.FormatMoney(event.Amount), event.OrderID)
	m.SetBody("text/html", body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send refund email: %v", err)
	}
	utils.LogInfo("Refund email sent - User ID: %d, Order ID: %d", event.UserID, event.OrderID)
	return nil
}

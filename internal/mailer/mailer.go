package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends transactional mail to sellers.
type SMTPMailer struct {
	from   string
	sender sender
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) SendListingCreatedEmail(toEmail, listingTitle string) error {
	if toEmail == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	if err := m.sender.DialAndSend(listingCreatedMessage(m.from, toEmail, listingTitle)); err != nil {
		return fmt.Errorf("mailer: send listing created email: %w", err)
	}
	return nil
}

func listingCreatedMessage(from, to, listingTitle string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain", "Your listing '"+listingTitle+"' has been created successfully.")
	return msg
}

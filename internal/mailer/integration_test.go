package mailer

import (
	"os"
	"strconv"
	"testing"
)

func TestSendListingCreatedEmail_Integration(t *testing.T) {
	to := os.Getenv("TEST_RECEIVER_EMAIL")
	host := os.Getenv("SMTP_HOST")
	if to == "" || host == "" {
		t.Skip("TEST_RECEIVER_EMAIL or SMTP_HOST not set, skipping integration test")
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	m := NewSMTPMailer(SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	})
	if err := m.SendListingCreatedEmail(to, "Integration Test Listing"); err != nil {
		t.Errorf("failed to send email: %v", err)
	}
}

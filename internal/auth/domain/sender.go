package domain

import "time"

// EmailSender is an outbound SMTP mailbox the service can send codes from.
// Credentials are stored server-side and never returned over the API.
type EmailSender struct {
	ID          string
	Address     string // unique, stored lowercased
	DisplayName string
	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	UseTLS      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

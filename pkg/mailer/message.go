package mailer

import (
	"context"
	"errors"
	"strings"
)

const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

// ErrSend wraps every delivery failure so callers can match on it.
var ErrSend = errors.New("email send failed")

// Message is one outbound email. Kind is used for metrics and logs only.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
	Kind    string `json:"kind"`
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("subject is required")
	}
	if strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "" {
		return errors.New("body is required")
	}
	return nil
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

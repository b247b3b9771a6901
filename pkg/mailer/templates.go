package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const (
	SubjectVerification  = "Verify Your Email"
	SubjectPasswordReset = "Password Reset Request"
)

const defaultStoreName = "our store"

type verificationData struct {
	Name  string
	Store string
	Link  string
}

type resetData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// VerificationEmail renders the welcome email carrying the verification link.
func VerificationEmail(to, name, link string) (Message, error) {
	html, err := render("verification.html", verificationData{Name: displayName(name), Store: defaultStoreName, Link: link})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: SubjectVerification,
		HTML:    html,
		Text:    fmt.Sprintf("Welcome, %s! Verify your email address: %s", displayName(name), link),
		Kind:    KindVerification,
	}, nil
}

// PasswordResetEmail renders the reset email; ttl is shown to the reader.
func PasswordResetEmail(to, name, link string, ttl time.Duration) (Message, error) {
	expires := humanDuration(ttl)
	html, err := render("password_reset.html", resetData{Name: displayName(name), Link: link, ExpiresIn: expires})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: SubjectPasswordReset,
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, reset your password within %s: %s", displayName(name), expires, link),
		Kind:    KindPasswordReset,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "a short time"
	}
	if d < time.Hour {
		mins := int(d.Round(time.Minute) / time.Minute)
		if mins <= 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Round(time.Hour) / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

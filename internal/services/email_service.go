/**
 * @description
 * Email Service.
 * Best-effort SMTP delivery of transactional emails. Sends never propagate an
 * error to the caller: a failed email is logged and swallowed so it can never
 * fail the primary transition that triggered it.
 *
 * @dependencies
 * - gopkg.in/gomail.v2: SMTP client
 * - backend/internal/config
 */

package services

import (
	"fmt"
	"strings"

	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/logger"
	"gopkg.in/gomail.v2"
)

// EmailTemplate names a transactional email
type EmailTemplate string

const (
	EmailExchangeRequest  EmailTemplate = "exchangeRequest"
	EmailExchangeApproved EmailTemplate = "exchangeApproved"
	EmailExchangeRejected EmailTemplate = "exchangeRejected"
	EmailNewMessage       EmailTemplate = "newMessage"
	EmailNewRating        EmailTemplate = "newRating"
	EmailOwnershipMoved   EmailTemplate = "bookOwnershipTransferred"
)

// emailSender abstracts the SMTP dialer for tests
type emailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService renders and sends templated emails
type EmailService struct {
	cfg    *config.Config
	dialer emailSender
}

// NewEmailService creates a new EmailService. When no SMTP user is configured
// the service is a no-op (useful in development and tests).
func NewEmailService(cfg *config.Config) *EmailService {
	s := &EmailService{cfg: cfg}
	if cfg.Email.User != "" {
		s.dialer = gomail.NewDialer(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.Password)
	}
	return s
}

// Send renders template with positional args and delivers it to the recipient.
// Always returns without error; delivery problems are logged.
func (s *EmailService) Send(to string, template EmailTemplate, args ...string) {
	if to == "" {
		return
	}
	if s.dialer == nil {
		logger.Info("EmailService: SMTP not configured, skipping %s email to %s", template, to)
		return
	}

	subject, body, err := s.render(template, args)
	if err != nil {
		logger.Error("EmailService: %v", err)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Email.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		logger.Error("EmailService: Failed to send %s email to %s: %v", template, to, err)
		return
	}
	logger.Info("EmailService: Sent %s email to %s", template, to)
}

func (s *EmailService) render(template EmailTemplate, args []string) (subject, body string, err error) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	appURL := s.cfg.Server.AppURL

	switch template {
	case EmailExchangeRequest:
		// args: requester name, book title, owner name
		subject = fmt.Sprintf("New Book Exchange Request - %s", arg(1))
		body = emailLayout(
			"New Book Exchange Request",
			fmt.Sprintf("Hello %s,<p><strong>%s</strong> has requested to exchange your book:</p>", arg(2), arg(0)),
			arg(1),
			appURL+"/exchanges", "View Exchange Requests")
	case EmailExchangeApproved:
		// args: owner name, book title, requester name
		subject = fmt.Sprintf("Exchange Request Approved - %s", arg(1))
		body = emailLayout(
			"Exchange Request Approved! 🎉",
			fmt.Sprintf("Hello %s,<p>Great news! <strong>%s</strong> has approved your exchange request for:</p>", arg(2), arg(0)),
			arg(1),
			appURL+"/exchanges", "View Exchange Details")
	case EmailExchangeRejected:
		// args: owner name, book title, requester name
		subject = fmt.Sprintf("Exchange Request Update - %s", arg(1))
		body = emailLayout(
			"Exchange Request Update",
			fmt.Sprintf("Hello %s,<p>Unfortunately, <strong>%s</strong> has declined your exchange request for:</p>", arg(2), arg(0)),
			arg(1),
			appURL+"/books", "Browse More Books")
	case EmailNewMessage:
		// args: sender name, receiver name, book title
		subject = fmt.Sprintf("New Message from %s", arg(0))
		body = emailLayout(
			"New Message Received",
			fmt.Sprintf("Hello %s,<p>You have received a new message from <strong>%s</strong> regarding your book exchange:</p>", arg(1), arg(0)),
			arg(2),
			appURL+"/exchanges", "View Message")
	case EmailNewRating:
		// args: rater name, rated name, rating, book title
		subject = fmt.Sprintf("You received a %s-star rating!", arg(2))
		body = emailLayout(
			"New Rating Received! ⭐",
			fmt.Sprintf("Hello %s,<p><strong>%s</strong> has rated you <strong>%s/5 stars</strong> for your book exchange:</p>", arg(1), arg(0), arg(2)),
			arg(3),
			appURL+"/profile", "View Your Profile")
	case EmailOwnershipMoved:
		// args: counterparty name, book title, message
		subject = fmt.Sprintf("Book Ownership Transferred - %s", arg(1))
		body = emailLayout(
			"Book Ownership Transferred! 📚",
			fmt.Sprintf("Hello,<p><strong>%s</strong></p>", arg(2)),
			arg(1),
			appURL+"/my-books", "View My Books")
	default:
		return "", "", fmt.Errorf("email template %q not found", template)
	}
	return subject, body, nil
}

// emailLayout wraps content in the shared transactional layout
func emailLayout(heading, intro, highlight, link, linkLabel string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(fmt.Sprintf(`<h2 style="color: #4F46E5;">%s</h2>`, heading))
	b.WriteString(intro)
	if highlight != "" {
		b.WriteString(fmt.Sprintf(`<div style="background-color: #F3F4F6; padding: 20px; border-radius: 8px; margin: 20px 0;"><h3 style="margin: 0; color: #1F2937;">%s</h3></div>`, highlight))
	}
	b.WriteString(fmt.Sprintf(`<a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">%s</a>`, link, linkLabel))
	b.WriteString(`<p style="margin-top: 30px; color: #6B7280; font-size: 14px;">Best regards,<br>Book Trading Club Team</p>`)
	b.WriteString(`</div>`)
	return b.String()
}

package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/arisrestaurant/food-delivery/utils"
	"gopkg.in/mail.v2"
)

var ErrMailDisabled = errors.New("mail delivery is not configured")

// Mailer sends the account lifecycle emails.
type Mailer interface {
	SendVerification(to, name, token string) error
	SendPasswordReset(to, name, token string) error
	SendWelcome(to, name string) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
}

// NewMailer returns an SMTP mailer, or a LogMailer when no host is set.
func NewMailer(cfg SMTPConfig) Mailer {
	if cfg.Host == "" {
		utils.InfoLogger.Warn("SMTP_HOST not set, emails will only be logged")
		return LogMailer{}
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (m *SMTPMailer) SendVerification(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.FrontendURL, token)
	return m.send(to, "Verify Your Email - Ari's Restaurant", verificationTmpl, mailData{Name: name, Link: link})
}

func (m *SMTPMailer) SendPasswordReset(to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.FrontendURL, token)
	return m.send(to, "Password Reset - Ari's Restaurant", resetTmpl, mailData{Name: name, Link: link})
}

func (m *SMTPMailer) SendWelcome(to, name string) error {
	return m.send(to, "Welcome to Ari's Restaurant!", welcomeTmpl, mailData{Name: name, Link: m.cfg.FrontendURL})
}

func (m *SMTPMailer) send(to, subject string, tmpl *template.Template, data mailData) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		utils.ErrorLogger.Printf("Error sending %q to %s: %v", subject, to, err)
		return err
	}
	utils.InfoLogger.Printf("Email %q sent to %s", subject, to)
	return nil
}

// LogMailer is used in development when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) SendVerification(to, name, token string) error {
	utils.InfoLogger.WithField("to", to).Infof("verification email skipped (token=%s)", token)
	return ErrMailDisabled
}

func (LogMailer) SendPasswordReset(to, name, token string) error {
	utils.InfoLogger.WithField("to", to).Infof("password reset email skipped (token=%s)", token)
	return ErrMailDisabled
}

func (LogMailer) SendWelcome(to, name string) error {
	utils.InfoLogger.WithField("to", to).Info("welcome email skipped")
	return ErrMailDisabled
}

type mailData struct {
	Name string
	Link string
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome {{.Name}}!</h2>
  <p>Thank you for signing up with Ari's Restaurant. Please verify your email address:</p>
  <p><a href="{{.Link}}">Verify Email Address</a></p>
  <p>If the link doesn't work, copy it into your browser:<br>{{.Link}}</p>
  <p>If you didn't create an account, please ignore this email.</p>
</div>`))

	resetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Hi {{.Name}},</h2>
  <p>We received a request to reset your password. Use the link below to choose a new one:</p>
  <p><a href="{{.Link}}">Reset Password</a></p>
  <p><strong>This link will expire in 1 hour.</strong></p>
  <p>If you didn't request a password reset, you can ignore this email.</p>
</div>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Hi {{.Name}}!</h2>
  <p>Your email has been verified. Browse the menu, fill your cart and enjoy fast delivery.</p>
  <p><a href="{{.Link}}">Start Ordering Now</a></p>
</div>`))
)

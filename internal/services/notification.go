package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/pkg/logger"
)

// NotificationService builds and dispatches outbound emails. Delivery is
// fire-and-forget: failures are logged and never surface to the caller.
type NotificationService struct {
	cfg   *config.Config
	queue MailQueue
}

func NewNotificationService(cfg *config.Config, queue MailQueue) *NotificationService {
	return &NotificationService{cfg: cfg, queue: queue}
}

// SendProjectInvitation emails an invitation link carrying the signed token.
func (s *NotificationService) SendProjectInvitation(toEmail, projectName, inviterName, token string) {
	link := fmt.Sprintf("%s/invitation?token=%s", s.cfg.Frontend.BaseURL, token)

	var sb strings.Builder
	s.writeHeader(&sb, "You have been invited to a project")
	sb.WriteString(fmt.Sprintf("<p><strong>%s</strong> invited you to join the project <strong>%s</strong>.</p>", inviterName, projectName))
	sb.WriteString(fmt.Sprintf("<p><a href=\"%s\" style=\"background: #2b90d9; color: #fff; padding: 10px 18px; border-radius: 4px; text-decoration: none;\">Accept invitation</a></p>", link))
	sb.WriteString("<p style=\"color: #888;\">The invitation link expires in 7 days.</p>")
	s.writeFooter(&sb)

	s.dispatch(toEmail, fmt.Sprintf("Invitation to join %s", projectName), sb.String())
}

// SendTaskAssigned emails an assignee a deep link to the task.
func (s *NotificationService) SendTaskAssigned(toEmail, projectName, taskTitle string, projectID, taskID uint) {
	link := fmt.Sprintf("%s/projects/%d/tasks/%d", s.cfg.Frontend.BaseURL, projectID, taskID)

	var sb strings.Builder
	s.writeHeader(&sb, "A task was assigned to you")
	sb.WriteString(fmt.Sprintf("<p>You were assigned the task <strong>%s</strong> in project <strong>%s</strong>.</p>", taskTitle, projectName))
	sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">Open the task</a></p>", link))
	s.writeFooter(&sb)

	s.dispatch(toEmail, fmt.Sprintf("Task assigned: %s", taskTitle), sb.String())
}

// SendDocumentAssigned emails an assignee a deep link to the document.
func (s *NotificationService) SendDocumentAssigned(toEmail, projectName, docTitle string, projectID, docID uint) {
	link := fmt.Sprintf("%s/projects/%d/documents/%d", s.cfg.Frontend.BaseURL, projectID, docID)

	var sb strings.Builder
	s.writeHeader(&sb, "A document was shared with you")
	sb.WriteString(fmt.Sprintf("<p>The document <strong>%s</strong> in project <strong>%s</strong> was assigned to you.</p>", docTitle, projectName))
	sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">Open the document</a></p>", link))
	s.writeFooter(&sb)

	s.dispatch(toEmail, fmt.Sprintf("Document shared: %s", docTitle), sb.String())
}

// SendVerifyEmail emails the registration verification link.
func (s *NotificationService) SendVerifyEmail(toEmail, fullName, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.Frontend.BaseURL, token)

	var sb strings.Builder
	s.writeHeader(&sb, "Verify your email address")
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", fullName))
	sb.WriteString("<p>Confirm your email address to finish creating your account.</p>")
	sb.WriteString(fmt.Sprintf("<p><a href=\"%s\" style=\"background: #27ae60; color: #fff; padding: 10px 18px; border-radius: 4px; text-decoration: none;\">Verify email</a></p>", link))
	sb.WriteString("<p style=\"color: #888;\">This link expires in 10 minutes.</p>")
	s.writeFooter(&sb)

	s.dispatch(toEmail, "Verify your email", sb.String())
}

// SendPasswordReset emails the password reset link.
func (s *NotificationService) SendPasswordReset(toEmail, fullName, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.Frontend.BaseURL, token)

	var sb strings.Builder
	s.writeHeader(&sb, "Reset your password")
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", fullName))
	sb.WriteString("<p>We received a request to reset your password.</p>")
	sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">Choose a new password</a></p>", link))
	sb.WriteString("<p style=\"color: #888;\">If you did not request this, you can ignore this email.</p>")
	s.writeFooter(&sb)

	s.dispatch(toEmail, "Reset your password", sb.String())
}

func (s *NotificationService) writeHeader(sb *strings.Builder, title string) {
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", title))
}

func (s *NotificationService) writeFooter(sb *strings.Builder) {
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Sent by TaskHub</p>")
	sb.WriteString("</body></html>")
}

func (s *NotificationService) dispatch(to, subject, body string) {
	if err := s.queue.Enqueue(&Mail{To: to, Subject: subject, Body: body}); err != nil {
		logger.Errorf("[Notification] Failed to enqueue mail to %s: %v", to, err)
	}
}

// Deliver performs the actual SMTP send. It is wired as the sender of
// both the sync queue and the async worker.
func (s *NotificationService) Deliver(ctx context.Context, mail *Mail) error {
	cfg := &s.cfg.SMTP
	if !cfg.Enabled || cfg.Host == "" {
		logger.Infof("[Notification] SMTP disabled, skipping mail to %s (%s)", mail.To, mail.Subject)
		return nil
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = mail.To
	headers["Subject"] = mail.Subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(mail.Body)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var err error
	if cfg.UseTLS {
		err = s.deliverTLS(&s.cfg.SMTP, addr, auth, from, mail.To, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, []string{mail.To}, []byte(message.String()))
	}

	if err != nil {
		logger.Infof("[Notification] Failed to send mail to %s: %v", mail.To, err)
		return err
	}

	logger.Infof("[Notification] Sent %q to %s", mail.Subject, mail.To)
	return nil
}

func (s *NotificationService) deliverTLS(cfg *config.SMTPConfig, addr string, auth smtp.Auth, from, to, message string) error {
	tlsConfig := &tls.Config{
		ServerName: cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}

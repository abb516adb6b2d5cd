package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Proveedores conocidos, elegidos segun el dominio de la cuenta emisora.
const (
	providerGmail   = "gmail"
	providerOutlook = "outlook"
	providerGeneric = "generic"
)

// SMTPSender envia codigos de verificacion via SMTP. El transporte se elige
// segun el dominio de la direccion emisora: Gmail y Outlook usan sus
// smarthosts conocidos, cualquier otra cuenta usa el host configurado.
type SMTPSender struct {
	logger   *zap.Logger
	from     string
	password string
	host     string
	port     int
	secure   bool
	provider string
}

func NewSMTPSender(logger *zap.Logger, from, password, host string, port int, secure bool) (*SMTPSender, error) {
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	if port == 0 {
		port = 587
	}

	s := &SMTPSender{
		logger:   logger,
		from:     from,
		password: password,
		host:     host,
		port:     port,
		secure:   secure,
		provider: detectProvider(from),
	}
	switch s.provider {
	case providerGmail:
		s.host = "smtp.gmail.com"
		s.port = 587
	case providerOutlook:
		s.host = "smtp-mail.outlook.com"
		s.port = 587
	default:
		if strings.TrimSpace(s.host) == "" {
			return nil, fmt.Errorf("smtp host is required")
		}
	}
	return s, nil
}

// Send intenta la entrega y devuelve true solo si el transporte la acepto.
// Todos los fallos se capturan y quedan en el log como diagnostico.
func (s *SMTPSender) Send(_ context.Context, toEmail, code string) bool {
	if strings.TrimSpace(toEmail) == "" {
		return false
	}

	msg := buildMessage(s.from, toEmail, "Verification Code", fmt.Sprintf("Your verification code is: %s\n", code))
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.password != "" {
		auth = smtp.PlainAuth("", s.from, s.password, s.host)
	}

	var err error
	if s.secure {
		err = s.sendTLS(addr, auth, toEmail, msg)
	} else {
		err = smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg))
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("verification code delivery failed",
				zap.String("provider", s.provider),
				zap.String("email", toEmail),
				zap.Error(err),
			)
		}
		return false
	}

	if s.logger != nil {
		s.logger.Info("verification code sent", zap.String("email", toEmail))
	}
	return true
}

func (s *SMTPSender) sendTLS(addr string, auth smtp.Auth, toEmail, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func detectProvider(from string) string {
	addr := strings.ToLower(strings.TrimSpace(from))
	switch {
	case strings.HasSuffix(addr, "@gmail.com"):
		return providerGmail
	case strings.Contains(addr, "@outlook."), strings.Contains(addr, "@hotmail."):
		return providerOutlook
	default:
		return providerGeneric
	}
}

func buildMessage(from, to, subject, body string) string {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}

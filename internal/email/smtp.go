package email

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPConfig configures the SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// dialer is the part of gomail.Dialer the service uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer  dialer
	from    string
	host    string
	timeout time.Duration
}

func NewSMTPService(cfg SMTPConfig) Service {
	return newSMTPService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg)
}

func newSMTPService(d dialer, cfg SMTPConfig) *smtpService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &smtpService{
		dialer:  d,
		from:    cfg.From,
		host:    cfg.Host,
		timeout: timeout,
	}
}

// Send blocks until the SMTP exchange finishes, the timeout elapses or ctx is
// cancelled. gomail has no context support, so an abandoned exchange finishes
// in the background.
func (s *smtpService) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("recipient is required")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.host)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("failed to send email: %w", err)
		}
		return messageID, nil
	case <-ctx.Done():
		return "", fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}

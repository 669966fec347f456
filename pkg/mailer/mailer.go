package mailer

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer отправляет HTML-письма через SMTP.
// Send ходит в SMTP на каждый вызов: письма рассылки независимы друг от друга.
// Письма из HTTP-запросов (сброс пароля) идут через circuit breaker и при
// недоступном SMTP сразу завершаются ошибкой.
type Mailer struct {
	from   string
	send   func(*gomail.Message) error
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return newMailer(cfg.From, func(m *gomail.Message) error { return d.DialAndSend(m) }, logger)
}

// NewWithSender отправляет письма через произвольный gomail.Sender вместо SMTP-диалера.
func NewWithSender(from string, s gomail.Sender, logger *zap.Logger) *Mailer {
	return newMailer(from, func(m *gomail.Message) error { return gomail.Send(s, m) }, logger)
}

func newMailer(from string, send func(*gomail.Message) error, logger *zap.Logger) *Mailer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Mailer{from: from, send: send, cb: cb, logger: logger}
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	return m.deliver(ctx, to, subject, htmlBody, m.send)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return m.deliver(ctx, to, "Reset your password", passwordResetBody(name, link), m.guarded)
}

func (m *Mailer) guarded(msg *gomail.Message) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.send(msg)
	})
	return err
}

func (m *Mailer) deliver(ctx context.Context, to, subject, htmlBody string, send func(*gomail.Message) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := send(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LogMailer заменяет SMTP, когда он не настроен: письма только пишутся в лог.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("smtp not configured, email skipped", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return m.Send(ctx, to, "Reset your password", passwordResetBody(name, link))
}

func passwordResetBody(name, link string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p>You requested to reset your password. Click the link below to proceed:</p>
			<p><a href="%s">Reset password</a></p>
			<p>This link will expire in 24 hours.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, html.EscapeString(name), html.EscapeString(link))
}

package mail

import (
	"fmt"

	"github.com/CarSave/CarSave/internal/common/config"
	"gopkg.in/gomail.v2"
)

// Mailer SMTP 邮件发送器（找回密码验证码）
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer 创建 Mailer
func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("mail host/port not configured")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail from not configured")
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send 发送一封 HTML 邮件
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m == nil || m.dialer == nil {
		return fmt.Errorf("mailer not initialized")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// Package mailer は登録完了メールの送信を提供する。
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Config はSMTP送信の設定。
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer はnet/smtp経由でメールを送信する。
type SMTPMailer struct {
	config Config
	// sendFn はテスト用に差し替え可能な送信関数。省略時はsmtp.SendMail。
	sendFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(config Config) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		sendFn: smtp.SendMail,
	}
}

// SendWelcome は登録完了メールを送信する。
func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	subject := "SocialDeskへようこそ"
	body := fmt.Sprintf(
		"%s さん\r\n\r\nSocialDeskへのご登録ありがとうございます。\r\nダッシュボードからSNSアカウントを連携して、投稿の作成・予約を始めましょう。\r\n",
		name,
	)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.config.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := m.sendFn(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

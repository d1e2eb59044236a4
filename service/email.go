package service

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"kashflo/config"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("email service is disabled, set email.enabled=true")

// Mailer 发送邮件，便于测试替换
type Mailer interface {
	SendVerificationEmail(toEmail, userName, code string) error
}

// EmailService 邮件服务
type EmailService struct {
	cfg    *config.EmailConfig
	sender func(m ...*gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.sender = s.dialAndSend
	return s
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #10b981, #059669); color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; color: #333; line-height: 1.8; }
        .code { font-size: 36px; font-weight: bold; color: #059669; letter-spacing: 8px; font-family: 'Courier New', monospace; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Kashflo</h1></div>
        <div class="content">
            <p>Hi {{.Name}},</p>
            <p>Use the following code to verify your email address:</p>
            <p style="text-align: center;"><span class="code">{{.Code}}</span></p>
            <p>The code expires in <strong>{{.Minutes}} minutes</strong>. If you did not request it, ignore this email.</p>
        </div>
        <div class="footer"><p>This message was sent automatically, please do not reply.</p></div>
    </div>
</body>
</html>
`))

// generateVerificationEmailBody 生成验证码邮件内容
func (s *EmailService) generateVerificationEmailBody(userName, code string) (string, error) {
	if strings.TrimSpace(userName) == "" {
		userName = "there"
	}
	var b strings.Builder
	err := verificationTmpl.Execute(&b, struct {
		Name    string
		Code    string
		Minutes int
	}{userName, code, int(VerificationCodeTTL.Minutes())})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// SendVerificationEmail 发送邮箱验证码邮件
func (s *EmailService) SendVerificationEmail(toEmail, userName, code string) error {
	if !s.cfg.Enabled {
		return ErrEmailDisabled
	}

	body, err := s.generateVerificationEmailBody(userName, code)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	return s.sendEmail(toEmail, "[Kashflo] Email verification code", body)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m ...*gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m...)
}

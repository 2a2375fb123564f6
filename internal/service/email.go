package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"insighthub/internal/config"
)

// EmailService 邮件服务
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService 创建邮件服务
func NewEmailService() *EmailService {
	cfg := config.Get()
	return &EmailService{
		host:     cfg.Email.SMTPHost,
		port:     cfg.Email.SMTPPort,
		username: cfg.Email.Username,
		password: cfg.Email.Password,
		from:     cfg.Email.From,
	}
}

// SendEmail 发送邮件
func (s *EmailService) SendEmail(to, subject, body string) error {
	if s.host == "" {
		return fmt.Errorf("邮件服务未配置")
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	// 465 端口走 TLS
	if s.port == 465 {
		return s.sendEmailTLS(to, msg)
	}

	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg))
}

// sendEmailTLS 通过 TLS 发送邮件
func (s *EmailService) sendEmailTLS(to, msg string) error {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.host,
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err = client.Auth(auth); err != nil {
		return err
	}

	if err = client.Mail(s.from); err != nil {
		return err
	}
	if err = client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(msg)); err != nil {
		return err
	}

	return w.Close()
}

// 每日报告邮件模板
const dailyReportTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1890ff; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .footer { padding: 20px; text-align: center; color: #999; font-size: 12px; }
        table { width: 100%; border-collapse: collapse; margin: 15px 0; }
        th, td { padding: 8px 12px; border: 1px solid #e8e8e8; text-align: left; }
        th { background: #fafafa; }
        .highlight { color: #1890ff; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.OrgName}} 每日报告</h1>
            <p>{{.ReportDate}}</p>
        </div>
        <div class="content">
            <p>以下是您组织过去 24 小时的概况：</p>
            <table>
                <tr><th>仪表盘</th><td>{{.Dashboards}}</td></tr>
                <tr><th>组件</th><td>{{.Widgets}}</td></tr>
                <tr><th>成员</th><td>{{.Members}}</td></tr>
                <tr><th>Webhook</th><td>{{.Webhooks}}</td></tr>
                <tr><th>评论</th><td>{{.Comments}}</td></tr>
                <tr><th>24 小时内操作记录</th><td class="highlight">{{.AuditEvents}}</td></tr>
            </table>
            <p>完整报告已生成，可在控制台的「报告」页面下载。</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复。</p>
        </div>
    </div>
</body>
</html>
`

// DailyReportEmailData 每日报告邮件数据
type DailyReportEmailData struct {
	OrgName     string
	ReportDate  string
	Dashboards  int64
	Widgets     int64
	Members     int64
	Webhooks    int64
	Comments    int64
	AuditEvents int64
}

// SendDailyReport 发送每日报告邮件
func (s *EmailService) SendDailyReport(to string, data DailyReportEmailData) error {
	tmpl, err := template.New("daily_report").Parse(dailyReportTemplate)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}

	subject := fmt.Sprintf("【每日报告】%s %s", data.OrgName, data.ReportDate)
	return s.SendEmail(to, subject, buf.String())
}

// 成员邀请邮件模板
const inviteTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #52c41a; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .footer { padding: 20px; text-align: center; color: #999; font-size: 12px; }
        .btn { display: inline-block; padding: 10px 20px; background: #52c41a; color: white; text-decoration: none; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>团队邀请</h1>
        </div>
        <div class="content">
            <p>{{.InviterName}} 邀请您以 <strong>{{.Role}}</strong> 角色加入 <strong>{{.OrgName}}</strong>。</p>
            <p style="text-align: center; margin-top: 30px;">
                <a href="{{.AcceptURL}}" class="btn">接受邀请</a>
            </p>
            <p>邀请将在 {{.ExpireDays}} 天后失效。</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复。</p>
        </div>
    </div>
</body>
</html>
`

// InviteEmailData 邀请邮件数据
type InviteEmailData struct {
	InviterName string
	OrgName     string
	Role        string
	AcceptURL   string
	ExpireDays  int
}

// SendInvite 发送成员邀请邮件
func (s *EmailService) SendInvite(to string, data InviteEmailData) error {
	tmpl, err := template.New("invite").Parse(inviteTemplate)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}

	subject := fmt.Sprintf("【团队邀请】%s 邀请您加入 %s", data.InviterName, data.OrgName)
	return s.SendEmail(to, subject, buf.String())
}

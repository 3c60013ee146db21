package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders the transactional emails of the shop and hands them to a
// Sender.
type Mailer struct {
	sender Sender
}

func New(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	var html bytes.Buffer
	if err := resetTmpl.Execute(&html, map[string]string{"Name": name, "Link": link}); err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}
	return m.sender.Send(ctx, Message{
		To:      to,
		ToName:  name,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Hi %s, use this link within 10 minutes to reset your password: %s", name, link),
		HTML:    html.String(),
	})
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	var html bytes.Buffer
	if err := orderTmpl.Execute(&html, order); err != nil {
		return fmt.Errorf("render order mail: %w", err)
	}
	return m.sender.Send(ctx, Message{
		To:      to,
		ToName:  order.Shipping.Name,
		Subject: fmt.Sprintf("Order %s confirmed", order.ID),
		Text: fmt.Sprintf("Thank you for your order %s. Items: %d, total: %s.",
			order.ID, order.TotalItems, order.TotalPrice.StringFixed(2)),
		HTML: html.String(),
	})
}

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client sendGridClient
	from   *mail.Email
}

func NewSendGridSender(apiKey, fromAddr, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddr),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender only logs messages. It is used when no mail provider is
// configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("mail_not_sent", "reason", "no mail provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

var resetTmpl = template.Must(template.New("reset").Parse(
	`<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for 10 minutes.</p>
<p><a href="{{.Link}}">Reset password</a></p>`))

var orderTmpl = template.Must(template.New("order").Parse(
	`<h2>Thank you for your order</h2>
<p>Order <b>{{.ID}}</b></p>
<table>
<tr><th>Product</th><th>Qty</th><th>Price</th></tr>
{{range .Items}}{{if not .Canceled}}<tr><td>{{if .Product}}{{.Product.Title}}{{else}}{{.ProductID}}{{end}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice.StringFixed 2}}</td></tr>
{{end}}{{end}}</table>
<p>Total items: {{.TotalItems}}, total price: {{.TotalPrice.StringFixed 2}}</p>
<p>Shipping to {{.Shipping.Name}}, {{.Shipping.Address.House}}, {{.Shipping.Address.City}}, {{.Shipping.Address.State}} {{.Shipping.Address.Pincode}}</p>`))

package services

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/aaandrangom/biblioteca-api/config"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	libraryName          = "Biblioteca La Costeñita"
	verificationSubject  = "Bienvenido a " + libraryName
	orderAcceptedSubject = "Tu pedido fue aceptado"
	deadlineLayout       = "02/01/2006 15:04"
)

// Notifier sends the emails triggered by account signup and order acceptance
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendOrderAccepted(ctx context.Context, email string, orderID uint, deadline time.Time) error
}

// NewNotifier returns an SMTP notifier when a mail host is configured and a logging one otherwise
func NewNotifier(cfg *config.Config) (Notifier, error) {
	if !cfg.MailEnabled() {
		log.Printf("MAIL_HOST not set, emails will only be logged")
		return &LogNotifier{}, nil
	}
	return NewSMTPNotifier(cfg)
}

type emailTemplates struct {
	verification  *template.Template
	orderAccepted *template.Template
}

func parseTemplates() (*emailTemplates, error) {
	parse := func(content string) (*template.Template, error) {
		tpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", content, err)
		}
		return tpl.Lookup("layout"), nil
	}

	verification, err := parse("verification.html")
	if err != nil {
		return nil, err
	}
	orderAccepted, err := parse("order_accepted.html")
	if err != nil {
		return nil, err
	}

	return &emailTemplates{verification: verification, orderAccepted: orderAccepted}, nil
}

// SMTPNotifier delivers emails through an SMTP relay
type SMTPNotifier struct {
	client    *mail.Client
	from      string
	templates *emailTemplates
}

// NewSMTPNotifier builds a go-mail client from the MAIL_* settings
func NewSMTPNotifier(cfg *config.Config) (*SMTPNotifier, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(cfg.MailPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.MailUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.MailUsername),
			mail.WithPassword(cfg.MailPassword),
		)
	}

	client, err := mail.NewClient(cfg.MailHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &SMTPNotifier{client: client, from: cfg.MailFrom, templates: templates}, nil
}

func (n *SMTPNotifier) buildMessage(to, subject string, tpl *template.Template, data interface{}) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	if err := msg.SetBodyHTMLTemplate(tpl, data); err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}
	return msg, nil
}

func (n *SMTPNotifier) send(ctx context.Context, msg *mail.Msg) error {
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendVerificationCode emails the signup verification code
func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	msg, err := n.buildMessage(email, verificationSubject, n.templates.verification, verificationData(code))
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

// SendOrderAccepted tells the owner of an order until when they can pick up the book
func (n *SMTPNotifier) SendOrderAccepted(ctx context.Context, email string, orderID uint, deadline time.Time) error {
	msg, err := n.buildMessage(email, orderAcceptedSubject, n.templates.orderAccepted, orderAcceptedData(orderID, deadline))
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

func verificationData(code string) map[string]interface{} {
	return map[string]interface{}{"Library": libraryName, "Code": code}
}

func orderAcceptedData(orderID uint, deadline time.Time) map[string]interface{} {
	return map[string]interface{}{
		"Library":  libraryName,
		"OrderID":  orderID,
		"Deadline": deadline.Format(deadlineLayout),
	}
}

// LogNotifier writes emails to the log instead of sending them
type LogNotifier struct{}

func (LogNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	log.Printf("[mail] verification code for %s: %s", email, code)
	return nil
}

func (LogNotifier) SendOrderAccepted(ctx context.Context, email string, orderID uint, deadline time.Time) error {
	log.Printf("[mail] order %d accepted for %s, pick up before %s", orderID, email, deadline.Format(deadlineLayout))
	return nil
}

package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"

	"pet-vet-link/internal/platform/config"
	"pet-vet-link/internal/ports/notify"
)

const (
	connectTimeout = 10 * time.Second
	sendTimeout    = 10 * time.Second
)

// Mailer envía emails de invitación vía SMTP.
// Conecta por envío; el volumen esperado es bajo.
type Mailer struct {
	cfg  config.SMTPConfig
	from string
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:  cfg,
		from: cfg.From,
	}
}

func (m *Mailer) SendInvitation(ctx context.Context, msg notify.InvitationEmail) error {
	if !m.cfg.IsConfigured() {
		return fmt.Errorf("smtp: not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("smtp: empty recipient")
	}

	server := mail.NewSMTPClient()
	server.Host = m.cfg.Host
	server.Port = m.cfg.Port
	server.Username = m.cfg.User
	server.Password = m.cfg.Password
	server.Encryption = mail.EncryptionSTARTTLS
	server.KeepAlive = false
	server.ConnectTimeout = connectTimeout
	server.SendTimeout = sendTimeout
	if m.cfg.SkipInsecure {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := server.Connect()
	if err != nil {
		return fmt.Errorf("smtp: connect: %w", err)
	}

	email := mail.NewMSG()
	email.SetFrom(m.from).
		AddTo(msg.To).
		SetSubject(subjectFor(msg))
	email.SetBody(mail.TextPlain, bodyFor(msg))
	if email.Error != nil {
		return fmt.Errorf("smtp: build message: %w", email.Error)
	}

	if err := email.Send(client); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func subjectFor(msg notify.InvitationEmail) string {
	owner := msg.OwnerName
	if owner == "" {
		owner = "Um tutor"
	}
	return fmt.Sprintf("%s convidou você para acompanhar seus pets", owner)
}

func bodyFor(msg notify.InvitationEmail) string {
	var b strings.Builder

	name := msg.VetName
	if name == "" {
		name = "Olá"
	}
	fmt.Fprintf(&b, "Olá, %s!\n\n", name)

	owner := msg.OwnerName
	if owner == "" {
		owner = "Um tutor"
	}
	fmt.Fprintf(&b, "%s convidou você para acompanhar o histórico de saúde de: %s.\n\n",
		owner, strings.Join(msg.PetNames, ", "))

	if strings.TrimSpace(msg.Message) != "" {
		fmt.Fprintf(&b, "Mensagem do tutor:\n%s\n\n", msg.Message)
	}

	if msg.AcceptLink != "" {
		fmt.Fprintf(&b, "Para aceitar o convite, acesse:\n%s\n", msg.AcceptLink)
	}

	return b.String()
}

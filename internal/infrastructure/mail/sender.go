package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"

	"ProcureAI/internal/config"
	"ProcureAI/internal/domain"
	"ProcureAI/internal/metrics"
	"ProcureAI/internal/ports"
)

const smtpTimeout = 30 * time.Second

// SMTPSender delivers RFP invitations over SMTP.
type SMTPSender struct {
	cfg     config.SMTPConfig
	logger  *slog.Logger
	deliver func(ctx context.Context, msg *gomail.Msg) error
	now     func() time.Time
}

var _ ports.Mailer = (*SMTPSender)(nil)

// NewSMTPSender builds a sender for the configured relay.
func NewSMTPSender(cfg config.SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SMTPSender{cfg: cfg, logger: logger, now: time.Now}
	s.deliver = s.dialAndSend
	return s
}

// SendInvitation renders and sends the RFP email to one vendor.
func (s *SMTPSender) SendInvitation(ctx context.Context, vendor domain.Vendor, rfp domain.RFP) (domain.DeliveryReceipt, error) {
	invitation, err := BuildInvitation(vendor, rfp)
	if err != nil {
		return domain.DeliveryReceipt{}, err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.Username); err != nil {
		return domain.DeliveryReceipt{}, &domain.DeliveryError{Recipient: invitation.To, Err: fmt.Errorf("from address: %w", err)}
	}
	if err := msg.To(invitation.To); err != nil {
		return domain.DeliveryReceipt{}, &domain.DeliveryError{Recipient: invitation.To, Err: fmt.Errorf("to address: %w", err)}
	}
	if err := msg.ReplyTo(s.cfg.Username); err != nil {
		return domain.DeliveryReceipt{}, &domain.DeliveryError{Recipient: invitation.To, Err: fmt.Errorf("reply-to address: %w", err)}
	}
	msg.Subject(invitation.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, invitation.HTML)

	messageID := fmt.Sprintf("<%s@procureai>", uuid.NewString())
	msg.SetGenHeader(gomail.HeaderMessageID, messageID)

	if err := s.deliver(ctx, msg); err != nil {
		metrics.MailSentTotal.WithLabelValues("failed").Inc()
		return domain.DeliveryReceipt{}, &domain.DeliveryError{Recipient: invitation.To, Err: err}
	}
	metrics.MailSentTotal.WithLabelValues("sent").Inc()

	s.logger.Info("invitation sent", "rfp_id", rfp.ID, "vendor_id", vendor.ID, "to", invitation.To)

	return domain.DeliveryReceipt{
		MessageID: messageID,
		Recipient: invitation.To,
		Subject:   invitation.Subject,
		SentAt:    s.now(),
	}, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

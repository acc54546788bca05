package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ProcureAI/internal/config"
	"ProcureAI/internal/domain"
	"ProcureAI/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts vendor reply alerts to a Telegram chat via the bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.EventPublisher = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Publish forwards proposal.received and proposal.scored events; other
// event types are ignored.
func (n *Notifier) Publish(ctx context.Context, event domain.Event) error {
	text, ok := alertText(event)
	if !ok {
		return nil
	}
	return n.send(ctx, text)
}

func alertText(event domain.Event) (string, bool) {
	tag := domain.CorrelationTag(event.RFPID)
	switch event.Type {
	case domain.EventProposalReceived:
		vendor := event.Detail
		if vendor == "" {
			vendor = fmt.Sprintf("vendor %d", event.VendorID)
		}
		return fmt.Sprintf("%s Proposal received from %s (proposal %d)", tag, vendor, event.ProposalID), true
	case domain.EventProposalScored:
		return fmt.Sprintf("%s Proposal %d scored %s", tag, event.ProposalID, event.Detail), true
	default:
		return "", false
	}
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

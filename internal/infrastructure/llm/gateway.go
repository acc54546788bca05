package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/metrics"
	"ProcureAI/internal/ports"
)

const (
	structurePrompt = `You are a procurement assistant. Convert the user's purchase request into JSON with exactly this shape:
{"title": string, "budget": number or null, "currency": "USD", "requirements": [{"item": string, "quantity": number, "specs": string}], "timeline": string, "paymentTerms": string}
Use null for a budget that is not stated. Return only JSON.`

	extractPrompt = `You read vendor replies to a request for proposal. Extract the commercial terms as JSON with this shape:
{"totalPrice": number, "currency": string (ISO code, no symbols), "deliveryDate": string, "warranty": string, "itemsIncluded": [string]}
Include any other relevant terms as extra keys. Return only JSON.`

	scorePrompt = `You evaluate vendor proposals against a request for proposal. Score each proposal from 0 to 100 on price against budget, delivery time, warranty and completeness.
Respond with JSON: {"scores": [{"proposalId": number, "score": number, "summary": string}]} with one entry per proposal.`
)

// Completer sends one JSON-mode chat turn and returns the raw content.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Gateway implements the three AI operations on top of a chat completer.
type Gateway struct {
	chat   Completer
	logger *slog.Logger
}

var (
	_ ports.RequestStructurer = (*Gateway)(nil)
	_ ports.ReplyExtractor    = (*Gateway)(nil)
	_ ports.ProposalScorer    = (*Gateway)(nil)
)

// NewGateway wraps a chat completer.
func NewGateway(chat Completer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{chat: chat, logger: logger}
}

// StructureRequest turns a free-text purchase need into a structured document.
func (g *Gateway) StructureRequest(ctx context.Context, freeText string) (domain.Document, error) {
	return g.document(ctx, "structure_request", structurePrompt, freeText)
}

// ExtractVendorReply pulls commercial terms out of a vendor email body.
func (g *Gateway) ExtractVendorReply(ctx context.Context, emailText string) (domain.Document, error) {
	return g.document(ctx, "extract_reply", extractPrompt, emailText)
}

// ScoreProposals ranks proposals against the RFP. Failures are logged and
// yield an empty result.
func (g *Gateway) ScoreProposals(ctx context.Context, rfp domain.RFPContext, proposals []domain.ProposalCandidate) []domain.ProposalScore {
	if len(proposals) == 0 {
		return []domain.ProposalScore{}
	}

	payload, err := json.Marshal(map[string]any{
		"rfp":       rfp,
		"proposals": proposals,
	})
	if err != nil {
		g.logger.Error("marshal scoring payload", "error", err)
		return []domain.ProposalScore{}
	}

	content, err := g.call(ctx, "score_proposals", scorePrompt, string(payload))
	if err != nil {
		g.logger.Error("score proposals", "error", err)
		return []domain.ProposalScore{}
	}

	scores, err := parseScores(content)
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues("score_proposals", "parse_error").Inc()
		g.logger.Error("parse proposal scores", "error", err)
		return []domain.ProposalScore{}
	}
	return scores
}

func (g *Gateway) document(ctx context.Context, op, system, user string) (domain.Document, error) {
	content, err := g.call(ctx, op, system, user)
	if err != nil {
		return domain.Document{}, &domain.AIParseError{Operation: op, Err: err}
	}

	doc, err := domain.ParseDocument([]byte(stripCodeFence(content)))
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(op, "parse_error").Inc()
		return domain.Document{}, &domain.AIParseError{Operation: op, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if doc.IsNull() {
		return domain.Document{}, &domain.AIParseError{Operation: op, Err: errors.New("model returned null")}
	}
	return doc, nil
}

func (g *Gateway) call(ctx context.Context, op, system, user string) (string, error) {
	if g.chat == nil {
		return "", errors.New("ai gateway has no chat client")
	}

	started := time.Now()
	content, err := g.chat.CompleteJSON(ctx, system, user)
	metrics.AIRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(op, "error").Inc()
		return "", err
	}
	metrics.AIRequestsTotal.WithLabelValues(op, "ok").Inc()
	return content, nil
}

type rawScore struct {
	ProposalID flexInt `json:"proposalId"`
	Score      float64 `json:"score"`
	Summary    string  `json:"summary"`
}

// flexInt accepts ids encoded as numbers or numeric strings. Anything else
// decodes to zero so one malformed item does not sink the whole list.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

// parseScores accepts either a bare array or an object wrapping one.
func parseScores(content string) ([]domain.ProposalScore, error) {
	content = stripCodeFence(content)

	var items []rawScore
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, err
		}
	} else {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
			return nil, err
		}
		raw, ok := wrapper["scores"]
		if !ok {
			for _, v := range wrapper {
				if trimmed := bytes.TrimSpace(v); len(trimmed) > 0 && trimmed[0] == '[' {
					raw = v
					break
				}
			}
		}
		if raw == nil {
			return nil, errors.New("no score list in response")
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	}

	scores := make([]domain.ProposalScore, 0, len(items))
	for _, item := range items {
		if item.ProposalID <= 0 {
			continue
		}
		scores = append(scores, domain.ProposalScore{
			ProposalID: int64(item.ProposalID),
			Score:      clampScore(item.Score),
			Summary:    strings.TrimSpace(item.Summary),
		})
	}
	return scores, nil
}

func clampScore(v float64) int {
	score := int(math.Round(v))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

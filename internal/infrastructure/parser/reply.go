package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"ProcureAI/internal/attachment"
	"ProcureAI/internal/domain"
)

const maxPartSize = 10 << 20

// ReplyParser turns a raw RFC 5322 message into an InboundReply.
type ReplyParser struct {
	attachments *attachment.Registry
	logger      *slog.Logger
}

// NewReplyParser wires the attachment registry used for non-text parts.
func NewReplyParser(registry *attachment.Registry, logger *slog.Logger) *ReplyParser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplyParser{attachments: registry, logger: logger}
}

// Parse reads the message headers and body. The body is the plain text part,
// or the HTML part rendered as text, followed by one block per extracted attachment.
func (p *ReplyParser) Parse(ctx context.Context, r io.Reader) (domain.InboundReply, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return domain.InboundReply{}, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	subject, err := mr.Header.Subject()
	if err != nil {
		subject = mr.Header.Get("Subject")
	}

	reply := domain.InboundReply{Subject: subject}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		reply.SenderEmail = strings.ToLower(strings.TrimSpace(from[0].Address))
	}
	if id, ok := domain.ParseCorrelationTag(subject); ok {
		reply.RFPID = &id
	}

	var (
		text, html string
		blocks     []string
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				p.logger.Warn("unknown charset in reply part", "subject", subject, "error", err)
				continue
			}
			return domain.InboundReply{}, fmt.Errorf("read part: %w", err)
		}

		data, err := io.ReadAll(io.LimitReader(part.Body, maxPartSize))
		if err != nil {
			return domain.InboundReply{}, fmt.Errorf("read part body: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, _ := h.ContentType()
			switch contentType {
			case "text/plain":
				if text == "" {
					text = string(data)
				}
			case "text/html":
				if html == "" {
					html = string(data)
				}
			default:
				if block, ok := p.extract(ctx, attachment.Part{Filename: params["name"], ContentType: contentType, Data: data}); ok {
					blocks = append(blocks, block)
				}
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			if block, ok := p.extract(ctx, attachment.Part{Filename: filename, ContentType: contentType, Data: data}); ok {
				blocks = append(blocks, block)
			}
		}
	}

	body := strings.TrimSpace(text)
	if body == "" && html != "" {
		body, err = htmlToText(strings.NewReader(html))
		if err != nil {
			p.logger.Warn("render html body", "subject", subject, "error", err)
			body = html
		}
	}
	reply.Body = body + strings.Join(blocks, "")

	return reply, nil
}

func (p *ReplyParser) extract(ctx context.Context, part attachment.Part) (string, bool) {
	extractor, err := p.attachments.Resolve(part.ContentType)
	if err != nil {
		return "", false
	}

	content, err := extractor.Extract(ctx, part)
	if err != nil {
		p.logger.Warn("extract attachment", "filename", part.Filename, "error", err)
		return "", false
	}
	return AttachmentBlock(part.Filename, content), true
}

// AttachmentBlock formats extracted attachment text for appending to a body.
func AttachmentBlock(filename, content string) string {
	return fmt.Sprintf("\n\n--- [ATTACHMENT CONTENT: %s] ---\n%s\n-----------------------------------\n", filename, content)
}

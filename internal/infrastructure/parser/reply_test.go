package parser

import (
	"context"
	"strings"
	"testing"

	"ProcureAI/internal/attachment"
	"ProcureAI/internal/logging"
)

type stubPDF struct{}

func (stubPDF) ContentType() string { return "application/pdf" }

func (stubPDF) Extract(_ context.Context, part attachment.Part) (string, error) {
	return "Unit price 250 USD (" + part.Filename + ")", nil
}

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func TestParseMultipartReplyWithPDF(t *testing.T) {
	t.Parallel()

	raw := crlf(`From: "Alice Johnson" <A@X.com>
To: rfp@example.com
Subject: Re: [RFP-7] Request for Proposal: Laptops
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset=utf-8

Total: $5000, delivery 2 weeks
--BOUNDARY
Content-Type: application/pdf; name="quote.pdf"
Content-Disposition: attachment; filename="quote.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQK
--BOUNDARY--
`)

	p := NewReplyParser(attachment.NewRegistry(stubPDF{}), logging.Discard())
	reply, err := p.Parse(context.Background(), strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if reply.SenderEmail != "a@x.com" {
		t.Fatalf("unexpected sender %q", reply.SenderEmail)
	}
	if reply.RFPID == nil || *reply.RFPID != 7 {
		t.Fatalf("unexpected rfp id %v", reply.RFPID)
	}
	want := "Total: $5000, delivery 2 weeks" + AttachmentBlock("quote.pdf", "Unit price 250 USD (quote.pdf)")
	if reply.Body != want {
		t.Fatalf("unexpected body:\nwant %q\ngot  %q", want, reply.Body)
	}
}

func TestParseHTMLOnlyReply(t *testing.T) {
	t.Parallel()

	raw := crlf(`From: b@y.com
Subject: rfp-12 quote
Content-Type: text/html; charset=utf-8

<html><head><style>p{color:red}</style></head><body><p>Total price: <b>1200</b></p><p>Warranty   2 years</p></body></html>
`)

	reply, err := NewReplyParser(nil, logging.Discard()).Parse(context.Background(), strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if reply.RFPID == nil || *reply.RFPID != 12 {
		t.Fatalf("unexpected rfp id %v", reply.RFPID)
	}
	if reply.Body != "Total price: 1200\nWarranty 2 years" {
		t.Fatalf("unexpected body %q", reply.Body)
	}
}

func TestParseReplyWithoutTag(t *testing.T) {
	t.Parallel()

	raw := crlf(`From: c@z.com
Subject: Newsletter
Content-Type: text/plain

hello
`)

	reply, err := NewReplyParser(nil, logging.Discard()).Parse(context.Background(), strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if reply.RFPID != nil {
		t.Fatalf("expected no rfp id, got %d", *reply.RFPID)
	}
	if reply.Body != "hello" {
		t.Fatalf("unexpected body %q", reply.Body)
	}
}

func TestParseSkipsUnsupportedAttachments(t *testing.T) {
	t.Parallel()

	raw := crlf(`From: d@z.com
Subject: RFP-3
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="B"

--B
Content-Type: text/plain

See picture
--B
Content-Type: image/png
Content-Disposition: attachment; filename="logo.png"
Content-Transfer-Encoding: base64

iVBORw0KGgo=
--B--
`)

	reply, err := NewReplyParser(nil, logging.Discard()).Parse(context.Background(), strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if reply.Body != "See picture" {
		t.Fatalf("unexpected body %q", reply.Body)
	}
}

package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"ProcureAI/internal/domain"
)

const (
	defaultSpecs        = "Standard Specs"
	defaultBudget       = "Competitive"
	defaultTimeline     = "As soon as possible"
	defaultPaymentTerms = "Standard Net 30"
	defaultContact      = "Sales Team"
)

//go:embed templates/invitation.html
var templatesFS embed.FS

var invitationTemplate = template.Must(template.ParseFS(templatesFS, "templates/invitation.html"))

var usd = message.NewPrinter(language.AmericanEnglish)

// Invitation is a rendered RFP email ready to send.
type Invitation struct {
	To      string
	Subject string
	HTML    string
}

type requirementRow struct {
	Item     string
	Quantity string
	Specs    string
}

type invitationView struct {
	Title         string
	VendorName    string
	ContactPerson string
	Requirements  []requirementRow
	Budget        string
	Timeline      string
	PaymentTerms  string
	Tag           string
}

// BuildInvitation renders the invitation email for one vendor.
func BuildInvitation(vendor domain.Vendor, rfp domain.RFP) (Invitation, error) {
	doc := rfp.StructuredRequirements

	view := invitationView{
		Title:         firstNonEmpty(rfp.Title, doc.String("title"), "Procurement Request"),
		VendorName:    vendor.Name,
		ContactPerson: firstNonEmpty(vendor.ContactPerson, defaultContact),
		Requirements:  requirementRows(doc),
		Budget:        formatBudget(rfp.Budget),
		Timeline:      firstNonEmpty(doc.String("timeline"), defaultTimeline),
		PaymentTerms:  firstNonEmpty(doc.String("paymentTerms"), defaultPaymentTerms),
		Tag:           domain.CorrelationTag(rfp.ID),
	}

	var buf bytes.Buffer
	if err := invitationTemplate.Execute(&buf, view); err != nil {
		return Invitation{}, fmt.Errorf("render invitation: %w", err)
	}

	return Invitation{
		To:      vendor.Email,
		Subject: domain.InvitationSubject(rfp),
		HTML:    buf.String(),
	}, nil
}

func requirementRows(doc domain.Document) []requirementRow {
	items := doc.List("requirements")
	rows := make([]requirementRow, 0, len(items))
	for _, raw := range items {
		switch item := raw.(type) {
		case *domain.Document:
			rows = append(rows, requirementRow{
				Item:     firstNonEmpty(item.String("item"), item.String("name"), "-"),
				Quantity: firstNonEmpty(item.String("quantity"), "-"),
				Specs:    firstNonEmpty(item.String("specs"), defaultSpecs),
			})
		case string:
			rows = append(rows, requirementRow{Item: item, Quantity: "-", Specs: defaultSpecs})
		}
	}
	return rows
}

func formatBudget(budget *int64) string {
	if budget == nil || *budget == 0 {
		return defaultBudget
	}
	return usd.Sprintf("$%v", number.Decimal(float64(*budget), number.Scale(2)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

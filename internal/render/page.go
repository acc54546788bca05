package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ProcureAI/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var rfpPage = template.Must(template.ParseFS(templateFS, "templates/rfp.html"))

// RFPView is the data behind the RFP detail page.
type RFPView struct {
	ID              int64
	Title           string
	Status          string
	Created         string
	Budget          string
	OriginalRequest string
	Requirements    GridView
	Proposals       Comparison
}

// NewRFPView prepares an RFP with its proposals for display.
func NewRFPView(rfp *domain.RFP) RFPView {
	view := RFPView{
		ID:              rfp.ID,
		Title:           rfp.Title,
		Status:          string(rfp.Status),
		Created:         FormatDate(rfp.CreatedAt),
		Budget:          emptyValue,
		OriginalRequest: rfp.OriginalRequest,
		Requirements:    Grid(rfp.StructuredRequirements),
		Proposals:       Compare(rfp.Proposals),
	}
	if rfp.Budget != nil {
		view.Budget = message.NewPrinter(language.AmericanEnglish).Sprintf("$%d", *rfp.Budget)
	}
	return view
}

// RenderRFP writes the RFP detail page.
func RenderRFP(w io.Writer, rfp *domain.RFP) error {
	if err := rfpPage.Execute(w, NewRFPView(rfp)); err != nil {
		return fmt.Errorf("render rfp %d: %w", rfp.ID, err)
	}
	return nil
}

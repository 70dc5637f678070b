package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// writePDF lays records out one after another. Core fonts only cover
// cp1252, so text goes through the UTF-8 translator first.
func writePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreationDate(r.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(reportTitle), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Generated "+r.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(r.Records) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		for _, l := range NoResultsNotice(r.Warning) {
			pdf.MultiCell(0, 6, tr(l), "", "L", false)
			pdf.Ln(2)
		}
		return pdf.Output(w)
	}

	for i, rec := range r.Records {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, rec.Title)), "", "L", false)
		field(pdf, tr, "Organization", rec.Organization, false)
		field(pdf, tr, "Opens", rec.StartDate, false)
		field(pdf, tr, "Closes", rec.CloseDate, rec.HasCloseDate())
		if rec.URL != "" {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.Write(5, tr("Link: "))
			pdf.SetFont("Helvetica", "U", 10)
			pdf.SetTextColor(0, 0, 180)
			pdf.WriteLinkString(5, tr(rec.URL), rec.URL)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(5)
		}
		if rec.Description != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(rec.Description), "", "L", false)
		}
		pdf.Ln(4)
	}

	if d := r.Diagnostics; d != nil {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 4, tr(fmt.Sprintf("Provider: %s, AI calls: %d, AI successes: %d, heuristic fallbacks: %d",
			d.Provider, d.AICalls, d.AISuccesses, d.HeuristicFallbacks)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	return pdf.Output(w)
}

// field writes "label: value"; emphasised values are bold red.
func field(pdf *gofpdf.Fpdf, tr func(string) string, label, value string, emphasis bool) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Write(5, tr(label+": "))
	if emphasis {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(200, 0, 0)
	} else {
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Write(5, tr(value))
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(5)
}

package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	pdfFontName = "DejaVuSans"

	// next to the binary in the container image, or in the source tree for local runs
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

func resolveFontPath() string {
	for _, p := range []string{pdfFontRuntimePath, pdfFontSourcePath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (pf *PDFFormatter) Format(t Transcript) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(baseTitle, true)
	pdf.AddPage()

	fontName := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
		tr = func(s string) string { return s }
	}

	pdf.SetFont(fontName, "B", 18)
	pdf.Cell(0, 10, tr(baseTitle))
	pdf.Ln(10)

	pdf.SetFont(fontName, "", 9)
	pdf.Cell(0, 6, tr(t.subtitle()))
	pdf.Ln(10)

	if len(t.Exchanges) == 0 {
		pdf.SetFont(fontName, "", 12)
		pdf.Cell(0, 8, tr("No messages yet."))
	}

	for i, ex := range t.Exchanges {
		pdf.SetFont(fontName, "B", 13)
		pdf.Cell(0, 8, tr(fmt.Sprintf("Exchange %d", i+1)))
		pdf.Ln(9)

		writeLabeled(pdf, fontName, tr, userLabel, ex.User)
		writeLabeled(pdf, fontName, tr, assistantLabel, ex.Assistant)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeLabeled(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, label, text string) {
	pdf.SetFont(fontName, "B", 11)
	pdf.Cell(0, 6, tr(label+":"))
	pdf.Ln(6)

	pdf.SetFont(fontName, "", 11)
	_, size := pdf.GetFontSize()
	pdf.MultiCell(0, size*1.5, tr(text), "", "", false)
	pdf.Ln(2)
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}

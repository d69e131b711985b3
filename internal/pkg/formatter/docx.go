package formatter

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(t Transcript) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	title := doc.AddParagraph()
	title.SetStyle("Title")
	title.AddRun().AddText(baseTitle)

	sub := doc.AddParagraph()
	subRun := sub.AddRun()
	subRun.Properties().SetItalic(true)
	subRun.AddText(t.subtitle())

	if len(t.Exchanges) == 0 {
		doc.AddParagraph().AddRun().AddText("No messages yet.")
	}

	for i, ex := range t.Exchanges {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading2")
		heading.AddRun().AddText(fmt.Sprintf("Exchange %d", i+1))

		addLabeled(doc, userLabel, ex.User)
		addLabeled(doc, assistantLabel, ex.Assistant)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addLabeled(doc *document.Document, label, text string) {
	p := doc.AddParagraph()
	labelRun := p.AddRun()
	labelRun.Properties().SetBold(true)
	labelRun.AddText(label + ": ")
	p.AddRun().AddText(text)
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}

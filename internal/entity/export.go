package entity

import "fmt"

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatPDF, FormatDOCX:
		return true
	default:
		return false
	}
}

func ParseResultFormat(s string) (ResultFormat, error) {
	if s == "" {
		return FormatMarkdown, nil
	}
	f := ResultFormat(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: format must be one of markdown, pdf, docx", ErrInvalidFormat)
	}
	return f, nil
}

// ExportFile is a rendered conversation transcript ready to be downloaded.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

package formatter

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(t Transcript) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n_%s_\n", baseTitle, t.subtitle())

	if len(t.Exchanges) == 0 {
		buf.WriteString("\nNo messages yet.\n")
		return buf.Bytes(), nil
	}

	for i, ex := range t.Exchanges {
		fmt.Fprintf(&buf, "\n## Exchange %d\n\n", i+1)
		fmt.Fprintf(&buf, "**%s:** %s\n\n", userLabel, strings.TrimSpace(ex.User))
		fmt.Fprintf(&buf, "**%s:** %s\n", assistantLabel, strings.TrimSpace(ex.Assistant))
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}

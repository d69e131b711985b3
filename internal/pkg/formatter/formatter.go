package formatter

import (
	"fmt"
	"time"

	"github.com/futig/vitos-assistant/internal/entity"
)

const (
	baseTitle      = "Vito's Pizza Cafe conversation"
	userLabel      = "Customer"
	assistantLabel = "Assistant"
)

// Transcript is a conversation prepared for export.
type Transcript struct {
	ConversationID string
	StartedAt      time.Time
	ExportedAt     time.Time
	Exchanges      []entity.ExchangePair
}

func (t Transcript) subtitle() string {
	if t.StartedAt.IsZero() {
		return fmt.Sprintf("Conversation %s, exported %s", t.ConversationID, t.ExportedAt.UTC().Format(time.RFC1123))
	}
	return fmt.Sprintf("Conversation %s, started %s, exported %s", t.ConversationID,
		t.StartedAt.UTC().Format(time.RFC1123), t.ExportedAt.UTC().Format(time.RFC1123))
}

type Formatter interface {
	Format(t Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct {
	docxEnabled bool
}

type FactoryOption func(*Factory)

// WithDOCX enables DOCX export. unioffice refuses to save documents until a
// license key has been set, so only enable it after license setup succeeded.
func WithDOCX() FactoryOption {
	return func(f *Factory) {
		f.docxEnabled = true
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		if !f.docxEnabled {
			return nil, fmt.Errorf("%w: %s", entity.ErrFormatUnavailable, format)
		}
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidFormat, format)
	}
}

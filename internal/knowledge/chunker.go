package knowledge

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxHeaderLevel is the deepest heading that starts a new section.
const maxHeaderLevel = 3

var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits markdown first on heading boundaries and then on size.
// Headings stay in the chunk text and are also recorded as "Header N" metadata.
type Chunker struct {
	md       goldmark.Markdown
	splitter textsplitter.RecursiveCharacter
}

func NewChunker(size, overlap int) *Chunker {
	return &Chunker{
		md: goldmark.New(),
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(separators),
		),
	}
}

type section struct {
	headers map[string]string
	body    string
}

// Split turns one source file into ordered chunks.
func (c *Chunker) Split(src entity.SourceFile) ([]entity.Chunk, error) {
	var chunks []entity.Chunk

	for _, sec := range c.sections(src.Content) {
		parts, err := c.splitter.SplitText(sec.body)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", src.Name, err)
		}

		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, entity.Chunk{
				ID:      fmt.Sprintf("%s#%d", src.Name, len(chunks)),
				Content: part,
				Source:  src.Name,
				Headers: sec.headers,
				Index:   len(chunks),
			})
		}
	}

	return chunks, nil
}

// SplitAll chunks every source in order.
func (c *Chunker) SplitAll(sources []entity.SourceFile) ([]entity.Chunk, error) {
	var all []entity.Chunk
	for _, src := range sources {
		chunks, err := c.Split(src)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// sections walks the top-level markdown blocks and cuts the source at the start
// of every heading up to maxHeaderLevel. Headings inside code blocks are not
// block-level headings, so they never cut.
func (c *Chunker) sections(source []byte) []section {
	doc := c.md.Parser().Parse(text.NewReader(source))

	current := map[string]string{}
	var out []section
	start := 0
	startHeaders := copyHeaders(current)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > maxHeaderLevel || h.Lines().Len() == 0 {
			continue
		}

		lineStart := lineStartOf(source, h.Lines().At(0).Start)
		if body := string(source[start:lineStart]); strings.TrimSpace(body) != "" {
			out = append(out, section{headers: startHeaders, body: body})
		}

		current[headerKey(h.Level)] = headingText(h, source)
		for lvl := h.Level + 1; lvl <= maxHeaderLevel; lvl++ {
			delete(current, headerKey(lvl))
		}

		start = lineStart
		startHeaders = copyHeaders(current)
	}

	if body := string(source[start:]); strings.TrimSpace(body) != "" {
		out = append(out, section{headers: startHeaders, body: body})
	}

	return out
}

func headerKey(level int) string {
	return fmt.Sprintf("Header %d", level)
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		if i > 0 {
			buf.WriteByte(' ')
		}
		seg := lines.At(i)
		buf.Write(bytes.TrimSpace(seg.Value(source)))
	}
	return strings.TrimSpace(buf.String())
}

func lineStartOf(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	if i := bytes.LastIndexByte(source[:offset], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/futig/vitos-assistant/internal/entity"
)

// LoadSources reads every markdown file directly under dir, sorted by name.
// Subdirectories (including the persisted index) are ignored. A directory without
// markdown files yields ErrKnowledgeBaseEmpty.
func LoadSources(dir string) ([]entity.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base dir %s: %w", dir, err)
	}

	var sources []entity.SourceFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}

		sources = append(sources, entity.SourceFile{
			Name:    e.Name(),
			Content: content,
		})
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, entity.ErrKnowledgeBaseEmpty)
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})

	return sources, nil
}

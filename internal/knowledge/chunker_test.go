package knowledge

import (
	"strings"
	"testing"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuDoc = `Intro line before any heading.

# Menu

Our pizzas are baked fresh.

## Pizzas

Margherita costs $12.

### Specials

Tuesday two-for-one.

## Drinks

` + "```" + `
# not a heading
` + "```" + `

Lemonade costs $3.
`

func TestChunker_SplitsOnHeaders(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks, err := c.Split(entity.SourceFile{Name: "menu.md", Content: []byte(menuDoc)})
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	assert.Empty(t, chunks[0].Headers)
	assert.Contains(t, chunks[0].Content, "Intro line")

	assert.Equal(t, map[string]string{"Header 1": "Menu"}, chunks[1].Headers)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "# Menu"), "header kept in text")

	assert.Equal(t, map[string]string{"Header 1": "Menu", "Header 2": "Pizzas"}, chunks[2].Headers)
	assert.Equal(t, map[string]string{"Header 1": "Menu", "Header 2": "Pizzas", "Header 3": "Specials"}, chunks[3].Headers)

	// a new level-2 heading clears the level-3 one; the fenced "# not a heading" does not cut
	assert.Equal(t, map[string]string{"Header 1": "Menu", "Header 2": "Drinks"}, chunks[4].Headers)
	assert.Contains(t, chunks[4].Content, "# not a heading")
	assert.Contains(t, chunks[4].Content, "Lemonade")

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "menu.md", ch.Source)
	}
}

func TestChunker_SplitsLongSectionsBySize(t *testing.T) {
	long := "# Policy\n\n" + strings.Repeat("Refunds are issued within seven days. ", 60)

	c := NewChunker(200, 50)
	chunks, err := c.Split(entity.SourceFile{Name: "policy.md", Content: []byte(long)})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 200)
		assert.Equal(t, "Policy", ch.Headers["Header 1"])
	}
}

func TestChunker_EmptySource(t *testing.T) {
	chunks, err := NewChunker(1000, 200).Split(entity.SourceFile{Name: "empty.md", Content: []byte("  \n\n")})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

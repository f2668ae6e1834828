package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	html, err := Parse("**Hello**, _World_!")
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>Hello</strong>, <em>World</em>!</p>\n", html)
}

func TestParse_RawHTMLPassesThrough(t *testing.T) {
	html, err := Parse("<section>raw</section>\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<section>raw</section>")
}

func TestHighlight_Python(t *testing.T) {
	out := Highlight("# Heading\n\n```python\nimport sys\n```\n\nSome text")

	assert.True(t, strings.HasPrefix(out, "# Heading\n\n<div class=\"highlight\">"))
	assert.Contains(t, out, `<span class="kn">import</span>`)
	assert.Contains(t, out, "sys")
	assert.True(t, strings.HasSuffix(out, "</div>\n\n\nSome text"))
	assert.NotContains(t, out, "```")
}

func TestHighlight_UnknownLanguage(t *testing.T) {
	out := Highlight("# Heading\n\n```squirrels\nSome code\n```\n\nSome text")

	assert.Contains(t, out, `<div class="highlight">`)
	assert.Contains(t, out, "Some code")
	assert.NotContains(t, out, "squirrels")
}

func TestHighlight_NoFencesUnchanged(t *testing.T) {
	src := "plain *text*\n\nwith `inline` code"
	assert.Equal(t, src, Highlight(src))
}

func TestHighlightAndParse(t *testing.T) {
	html, err := HighlightAndParse("# Heading\n\n```python\nimport sys\n```\n\nSome text")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<h1>Heading</h1>\n<div class=\"highlight\">"))
	assert.Contains(t, html, `<span class="kn">import</span>`)
	assert.True(t, strings.HasSuffix(html, "<p>Some text</p>\n"))
}

func TestHighlightAndParse_Deterministic(t *testing.T) {
	src := "```go\nfunc main() {}\n```\n"
	a, err := HighlightAndParse(src)
	require.NoError(t, err)
	b, err := HighlightAndParse(src)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEscapeBraces(t *testing.T) {
	assert.Equal(t, "{{variable}}", EscapeBraces("{variable}"))
	assert.Equal(t, "{{}}", EscapeBraces("{}"))
}

func TestHighlightEscaped(t *testing.T) {
	out := HighlightEscaped("{title}\n\n```go\nfunc main() {}\n```\n")

	assert.True(t, strings.HasPrefix(out, "{title}\n\n"), "text outside fences is untouched")
	assert.Contains(t, out, "{{")
	assert.NotContains(t, strings.ReplaceAll(out[len("{title}"):], "{{", ""), "{")
}

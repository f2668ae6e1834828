// Package markdown converts page Markdown to HTML. Fenced code blocks are
// replaced by syntax-highlighted HTML before the Markdown parser runs, so the
// parser only ever sees the highlighted HTML as a raw block.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var codeFence = regexp.MustCompile("(?sm)^```([a-z]+)?$(.+?)^```$")

// md mirrors cmark's UNSAFE|SMART: raw HTML passes through and punctuation is
// typographically converted.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

var formatter = chromahtml.New(chromahtml.WithClasses(true))

// Parse converts Markdown to HTML.
func Parse(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return buf.String(), nil
}

// Highlight replaces fenced code blocks with highlighted HTML. Unknown or
// missing languages fall back to plain text.
func Highlight(src string) string {
	return codeFence.ReplaceAllStringFunc(src, func(block string) string {
		m := codeFence.FindStringSubmatch(block)
		return highlightBlock(m[1], m[2])
	})
}

// HighlightEscaped is Highlight with braces in the generated HTML escaped, so
// the result can pass through placeholder substitution without touching code.
func HighlightEscaped(src string) string {
	return codeFence.ReplaceAllStringFunc(src, func(block string) string {
		m := codeFence.FindStringSubmatch(block)
		return EscapeBraces(highlightBlock(m[1], m[2]))
	})
}

// HighlightAndParse highlights code blocks then converts the result to HTML.
func HighlightAndParse(src string) (string, error) {
	return Parse(Highlight(src))
}

// EscapeBraces doubles every brace so placeholder substitution leaves the text as-is.
func EscapeBraces(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

func highlightBlock(lang, code string) string {
	code = strings.Trim(code, "\n") + "\n"

	lexer := lexers.Fallback
	if lang != "" {
		if l := lexers.Get(lang); l != nil {
			lexer = l
		}
	}
	lexer = chroma.Coalesce(lexer)

	var buf bytes.Buffer
	buf.WriteString(`<div class="highlight">`)
	it, err := lexer.Tokenise(nil, code)
	if err == nil {
		err = formatter.Format(&buf, styles.Fallback, it)
	}
	if err != nil {
		// Tokenising plain text cannot fail in practice; emit escaped text if it does.
		buf.Reset()
		buf.WriteString(`<div class="highlight"><pre>`)
		buf.WriteString(htmlEscaper.Replace(code))
		buf.WriteString(`</pre>`)
	}
	buf.WriteString("</div>\n")
	return buf.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;")

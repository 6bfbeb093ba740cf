package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

// Parser renders quiz descriptions and reads quiz documents.
// Raw HTML in the source is escaped, never passed through.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts Markdown to HTML.
func (p *Parser) Render(source string) (string, error) {
	var buf bytes.Buffer
	err := p.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DecodeFrontmatter decodes the YAML (---) or TOML (+++) front matter of
// source into v and returns the Markdown body that follows it.
func (p *Parser) DecodeFrontmatter(source []byte, v any) ([]byte, error) {
	context := parser.NewContext()
	p.md.Parser().Parse(text.NewReader(source), parser.WithContext(context))

	data := frontmatter.Get(context)
	if data == nil {
		return nil, fmt.Errorf("document has no front matter")
	}

	err := data.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	return body(source), nil
}

// body returns what follows the closing front matter delimiter.
func body(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 {
		return nil
	}

	delim := bytes.TrimSpace(lines[0])
	if !bytes.Equal(delim, []byte("---")) && !bytes.Equal(delim, []byte("+++")) {
		return source
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), delim) {
			return bytes.TrimSpace(bytes.Join(lines[i+1:], nil))
		}
	}
	return nil
}

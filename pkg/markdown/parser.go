package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Parser wraps goldmark for inspecting preview output.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a parser with GFM extensions enabled, matching what
// most chat frontends render.
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &Parser{md: md}
}

// Parse parses markdown source and returns the AST root.
func (p *Parser) Parse(source []byte) ast.Node {
	return p.md.Parser().Parse(text.NewReader(source))
}

// ParseString is a convenience wrapper for string input.
func (p *Parser) ParseString(source string) ast.Node {
	return p.Parse([]byte(source))
}

// TopLevelKinds returns the node kinds of the document's direct
// children, in order. Useful for asserting that a balanced preview does
// not swallow trailing content into a code fence or emphasis span.
func (p *Parser) TopLevelKinds(source string) []ast.NodeKind {
	root := p.ParseString(source)
	var kinds []ast.NodeKind
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		kinds = append(kinds, node.Kind())
	}
	return kinds
}

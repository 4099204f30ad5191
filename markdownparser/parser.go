// Package markdownparser extracts SIML source from literate markdown
// documents: YAML front matter plus fenced ```siml code blocks.
package markdownparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Sentinel errors
var (
	ErrInvalidFrontMatter = fmt.Errorf("invalid front matter")
	ErrNoArchitectureCode = fmt.Errorf("no siml code block found")
)

// Document represents a parsed SIML markdown document.
type Document struct {
	Metadata map[string]any
	// Source is every siml code block joined in document order, ready for
	// the structural parser.
	Source string
	Blocks []CodeBlock
}

// CodeBlock is one fenced siml block with its position in the original file.
type CodeBlock struct {
	Source    string
	StartLine int // 1-based line of the first code line, after the fence
}

// Parse reads a markdown document and collects its SIML code blocks.
// It fails when the document contains none.
func Parse(reader io.Reader) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	frontMatter, body, err := parseFrontMatter(string(content))
	if err != nil {
		return nil, err
	}
	frontMatterLines := countFrontMatterLines(string(content))

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	doc := md.Parser().Parse(text.NewReader([]byte(body)))

	blocks := collectCodeBlocks(doc, []byte(body), frontMatterLines)
	if len(blocks) == 0 {
		return nil, ErrNoArchitectureCode
	}

	document := &Document{
		Metadata: frontMatter,
		Blocks:   blocks,
	}
	sources := make([]string, len(blocks))
	for i, block := range blocks {
		sources[i] = block.Source
	}
	document.Source = strings.Join(sources, "\n")

	if title := extractTitle(doc, []byte(body)); title != "" && document.Metadata["title"] == nil {
		document.Metadata["title"] = title
	}

	return document, nil
}

// collectCodeBlocks walks the AST and keeps every fenced block whose info
// string names the architecture language.
func collectCodeBlocks(doc ast.Node, content []byte, lineOffset int) []CodeBlock {
	var blocks []CodeBlock

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		codeBlock, ok := node.(*ast.FencedCodeBlock)
		if !ok || !isArchitectureBlock(codeBlock, content) {
			return ast.WalkContinue, nil
		}

		source := extractCodeBlockContent(codeBlock, content)
		startLine := 0
		if codeBlock.Lines() != nil && codeBlock.Lines().Len() > 0 {
			startLine = lineOfOffset(content, codeBlock.Lines().At(0).Start) + lineOffset
		}
		blocks = append(blocks, CodeBlock{Source: source, StartLine: startLine})
		return ast.WalkContinue, nil
	})

	return blocks
}

// isArchitectureBlock checks the fence info string for siml or simal.
func isArchitectureBlock(codeBlock *ast.FencedCodeBlock, content []byte) bool {
	if codeBlock.Info == nil {
		return false
	}
	segment := codeBlock.Info.Segment
	info := strings.TrimSpace(strings.ToLower(string(content[segment.Start:segment.Stop])))
	return info == "siml" || info == "simal"
}

// extractCodeBlockContent extracts the actual content from a code block AST node
func extractCodeBlockContent(codeBlock ast.Node, content []byte) string {
	var result strings.Builder

	if codeBlock.Lines() != nil {
		for i := 0; i < codeBlock.Lines().Len(); i++ {
			line := codeBlock.Lines().At(i)
			result.Write(content[line.Start:line.Stop])
		}
	}

	return strings.TrimRight(result.String(), "\n")
}

// extractTitle returns the text of the first level-1 heading, if any.
func extractTitle(doc ast.Node, content []byte) string {
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Level != 1 {
			continue
		}
		var result strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				segment := textNode.Segment
				result.Write(content[segment.Start:segment.Stop])
			}
		}
		return strings.TrimSpace(result.String())
	}
	return ""
}

// lineOfOffset converts a byte offset into a 1-based line number.
func lineOfOffset(content []byte, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}

// parseFrontMatter extracts YAML front matter from markdown content
func parseFrontMatter(content string) (map[string]any, string, error) {
	if !strings.HasPrefix(content, "---\n") {
		return make(map[string]any), content, nil
	}

	endIndex := strings.Index(content[4:], "\n---")
	if endIndex == -1 {
		return nil, "", ErrInvalidFrontMatter
	}
	endIndex += 4

	frontMatterContent := content[4:endIndex]
	remainingContent := content[endIndex+4:]

	var frontMatter map[string]any
	if err := yaml.Unmarshal([]byte(frontMatterContent), &frontMatter); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}
	if frontMatter == nil {
		frontMatter = make(map[string]any)
	}

	return frontMatter, remainingContent, nil
}

// countFrontMatterLines counts the lines the front matter occupied so code
// block positions can be reported against the original file.
func countFrontMatterLines(content string) int {
	if !strings.HasPrefix(content, "---\n") {
		return 0
	}
	endIndex := strings.Index(content[4:], "\n---")
	if endIndex == -1 {
		return 0
	}
	// the stripped prefix ends just before the newline opening the closing
	// delimiter, so the remaining body still starts on that newline
	return strings.Count(content[:endIndex+4], "\n") + 1
}

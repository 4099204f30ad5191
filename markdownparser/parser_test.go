package markdownparser

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

const literateDoc = `---
title: Todo Architecture
version: 1
---

# Todo App

Intro text.

` + "```siml" + `
system {
  name: todo
}
` + "```" + `

More text.

` + "```go" + `
fmt.Println()
` + "```" + `

` + "```siml" + `
  extra: value
` + "```" + `
`

func TestParseLiterateDocument(t *testing.T) {
	doc, err := Parse(strings.NewReader(literateDoc))
	assert.NoError(t, err)

	assert.Equal(t, "Todo Architecture", doc.Metadata["title"])
	_, hasVersion := doc.Metadata["version"]
	assert.True(t, hasVersion)

	// the go fence is skipped, both siml fences are collected in order
	assert.Equal(t, 2, len(doc.Blocks))
	assert.Equal(t, "system {\n  name: todo\n}", doc.Blocks[0].Source)
	assert.Equal(t, 11, doc.Blocks[0].StartLine)
	assert.Equal(t, "  extra: value", doc.Blocks[1].Source)
	assert.Equal(t, 23, doc.Blocks[1].StartLine)

	assert.Equal(t, "system {\n  name: todo\n}\n  extra: value", doc.Source)
}

func TestParseWithoutFrontMatter(t *testing.T) {
	input := "# My System\n\n```simal\nsystem {\n}\n```\n"
	doc, err := Parse(strings.NewReader(input))
	assert.NoError(t, err)

	// title falls back to the first level-1 heading
	assert.Equal(t, "My System", doc.Metadata["title"])
	assert.Equal(t, 1, len(doc.Blocks))
	assert.Equal(t, "system {\n}", doc.Blocks[0].Source)
	assert.Equal(t, 4, doc.Blocks[0].StartLine)
}

func TestParseInfoStringCase(t *testing.T) {
	input := "```SIML\nsystem {\n}\n```\n"
	doc, err := Parse(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(doc.Blocks))
}

func TestParseNoArchitectureBlock(t *testing.T) {
	input := "# Doc\n\n```go\npackage main\n```\n"
	doc, err := Parse(strings.NewReader(input))
	assert.IsError(t, err, ErrNoArchitectureCode)
	assert.Zero(t, doc)
}

func TestParseUnterminatedFrontMatter(t *testing.T) {
	input := "---\ntitle: broken\n"
	doc, err := Parse(strings.NewReader(input))
	assert.IsError(t, err, ErrInvalidFrontMatter)
	assert.Zero(t, doc)
}

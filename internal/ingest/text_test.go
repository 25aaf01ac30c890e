package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ziadkadry99/docrag/internal/walker"
)

func TestExtract_Markdown(t *testing.T) {
	src := "# Title\n\nSome *emphasis* and `code`.\n\n- one\n- two\n\n```go\nfmt.Println(\"hi\")\n```\n\n<div>hidden</div>\n\nSee <https://example.com>.\n"

	got := NewExtractor().Extract(walker.FormatMarkdown, []byte(src))

	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "Some emphasis and code.")
	assert.Contains(t, got, "one")
	assert.Contains(t, got, "two")
	assert.Contains(t, got, `fmt.Println("hi")`)
	assert.Contains(t, got, "https://example.com")
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "*")
	assert.NotContains(t, got, "hidden")
	assert.NotContains(t, got, "\n\n\n")
}

func TestExtract_Table(t *testing.T) {
	src := "| Name | Value |\n|------|-------|\n| port | 3333 |\n"
	got := NewExtractor().Extract(walker.FormatMarkdown, []byte(src))
	assert.Contains(t, got, "port")
	assert.Contains(t, got, "3333")
	assert.NotContains(t, got, "|")
}

func TestExtract_PlainText(t *testing.T) {
	src := "  line one\r\nline *two*\r\n"
	got := NewExtractor().Extract(walker.FormatText, []byte(src))
	assert.Equal(t, "line one\nline *two*", got)
}

package mdterm

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// plain renders markdown and strips terminal styling so tests compare text.
func plain(markdown string) string {
	return ansi.Strip(Render(markdown))
}

func TestBasicText(t *testing.T) {
	expect(t, plain("Hello world"), "Hello world")
}

func TestEmphasis(t *testing.T) {
	expect(t, plain("Hello **world**"), "Hello world")
	expect(t, plain("Hello *world*"), "Hello world")
	expect(t, plain("Hello ~~world~~"), "Hello world")
}

func TestHeadings(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"# Title", "Title"},
		{"## Subtitle", "Subtitle"},
		{"### Section *one*", "Section one"},
	}
	for _, tt := range tests {
		expect(t, plain(tt.in), tt.want)
	}
}

func TestInlineCode(t *testing.T) {
	expect(t, plain("Use `fmt.Println`"), "Use fmt.Println")
}

func TestFencedCodeBlock(t *testing.T) {
	got := plain("```go\nfmt.Println(\"hello\")\nreturn\n```")
	expect(t, got, "go\n  fmt.Println(\"hello\")\n  return")
}

func TestLinks(t *testing.T) {
	expect(t, plain("[Google](https://google.com)"), "Google (https://google.com)")
	expect(t, plain("[https://go.dev](https://go.dev)"), "https://go.dev")
	expect(t, plain("<https://go.dev>"), "https://go.dev")
}

func TestImage(t *testing.T) {
	expect(t, plain("![alt text](https://example.com/img.png)"), "[alt text] (https://example.com/img.png)")
	expect(t, plain("![](https://example.com/img.png)"), "[image] (https://example.com/img.png)")
}

func TestUnorderedList(t *testing.T) {
	expect(t, plain("- item 1\n- item 2\n- item 3"), "• item 1\n• item 2\n• item 3")
}

func TestOrderedList(t *testing.T) {
	expect(t, plain("1. first\n2. second"), "1. first\n2. second")
	expect(t, plain("3. third\n4. fourth"), "3. third\n4. fourth")
}

func TestNestedList(t *testing.T) {
	got := plain("- item 1\n  - sub 1\n  - sub 2\n- item 2")
	expect(t, got, "• item 1\n  • sub 1\n  • sub 2\n• item 2")
}

func TestBlockquote(t *testing.T) {
	expect(t, plain("> Hello world"), "│ Hello world")
}

func TestThematicBreak(t *testing.T) {
	expect(t, plain("---"), "──────────")
}

func TestRawHTMLKeptVerbatim(t *testing.T) {
	got := plain("a <b>bold</b> c")
	if !strings.Contains(got, "<b>bold</b>") {
		t.Errorf("raw HTML should pass through, got: %q", got)
	}
}

func TestTable(t *testing.T) {
	md := "| Name | Age |\n|------|-----|\n| Alice | 30 |\n| Bob | 25 |"
	expect(t, plain(md), "1.\n• Name: Alice\n• Age: 30\n\n2.\n• Name: Bob\n• Age: 25")
}

func TestTableHeaderOnly(t *testing.T) {
	got := plain("| Name | |\n|---|---|")
	if !strings.Contains(got, "• Name: ") || !strings.Contains(got, "• Column 2:") {
		t.Errorf("header-only table should keep one shell row, got: %q", got)
	}
}

func TestTaskList(t *testing.T) {
	got := plain("- [x] Done\n- [ ] Todo")
	if !strings.Contains(got, "[x]") || !strings.Contains(got, "Done") {
		t.Errorf("missing checked item, got: %q", got)
	}
	if !strings.Contains(got, "[ ]") || !strings.Contains(got, "Todo") {
		t.Errorf("missing unchecked item, got: %q", got)
	}
}

func TestComplex(t *testing.T) {
	md := `# Report

This is a **bold** and *italic* test with ` + "`inline code`" + `.

| Item  | Count |
|-------|-------|
| Alpha | 100   |

1. First step
2. Second step

> Important note here

` + "```python\nprint('hello')\n```"

	got := plain(md)
	for _, c := range []string{
		"Report",
		"This is a bold and italic test with inline code.",
		"• Item: Alpha",
		"• Count: 100",
		"1. First step",
		"│ Important note here",
		"python\n  print('hello')",
	} {
		if !strings.Contains(got, c) {
			t.Errorf("missing %q in output:\n%s", c, got)
		}
	}
}

// ---------------------------------------------------------------------------

func expect(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("\n got: %q\nwant: %q", got, want)
	}
}

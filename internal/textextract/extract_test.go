package textextract

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Docs</title><style>body{color:red}</style></head>
<body>
  <script>console.log("tracking")</script>
  <h1 class="hero" data-test="x">Getting   Started</h1>
  <p>Install the tool, then read the <a href="/guide" title="Guide">guide</a>.</p>
  <ul><li>one</li><li>two</li></ul>
  <noscript>Enable JS</noscript>
</body></html>`

func TestTextStripsScriptsAndCollapsesWhitespace(t *testing.T) {
	text, err := Text(samplePage)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "tracking") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content leaked into text: %q", text)
	}
	if !strings.Contains(text, "Getting Started") {
		t.Errorf("heading whitespace not collapsed: %q", text)
	}
	if !strings.Contains(text, "one\ntwo") {
		t.Errorf("list items should break lines: %q", text)
	}
	if strings.Contains(text, "\n\n\n") {
		t.Errorf("blank line runs not collapsed: %q", text)
	}
}

func TestTextEmptyDocument(t *testing.T) {
	text, err := Text("")
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestCleanStripsAttributesButKeepsLinks(t *testing.T) {
	out, err := Clean(samplePage)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script") || strings.Contains(out, "<style") {
		t.Errorf("script/style survived cleaning: %q", out)
	}
	if strings.Contains(out, "class=") || strings.Contains(out, "data-test=") {
		t.Errorf("presentation attributes survived: %q", out)
	}
	if !strings.Contains(out, `href="/guide"`) {
		t.Errorf("anchor href should be kept: %q", out)
	}
}

func TestMarkdownResolvesRelativeLinks(t *testing.T) {
	out, err := Markdown(samplePage, "https://example.com/docs/")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "# Getting") {
		t.Errorf("heading not converted: %q", out)
	}
	if !strings.Contains(out, "(https://example.com/guide)") {
		t.Errorf("relative link not resolved: %q", out)
	}
	if !strings.Contains(out, `"Guide"`) {
		t.Errorf("link title dropped: %q", out)
	}
}

func TestMarkdownWithoutBaseKeepsRelativeLinks(t *testing.T) {
	out, err := Markdown(samplePage, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(/guide)") {
		t.Errorf("relative link should pass through: %q", out)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://a.com/x/", "y", "https://a.com/x/y"},
		{"https://a.com/x/", "/y", "https://a.com/y"},
		{"https://a.com", "https://b.com/z", "https://b.com/z"},
		{"", "y", "y"},
	}
	for _, tt := range tests {
		if got := resolveURL(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

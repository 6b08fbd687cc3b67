// Package textextract turns captured page HTML into readable plain text or
// Markdown for API consumers.
package textextract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Clean removes scripting, styling, and form chrome from an HTML document
// and strips attributes down to the handful that matter for reading.
func Clean(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, canvas, template").Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var kept []html.Attribute
		for _, attr := range node.Attr {
			keep := false
			switch node.Data {
			case "a":
				keep = attr.Key == "href" || attr.Key == "title"
			case "img":
				keep = attr.Key == "src" || attr.Key == "alt" || attr.Key == "title"
			case "input":
				keep = attr.Key == "type" || attr.Key == "value" || attr.Key == "placeholder"
			}
			if keep {
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	out, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// blockTags end a line when flattening HTML to text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "aside": true, "nav": true, "ul": true,
	"ol": true, "li": true, "table": true, "tr": true, "blockquote": true,
	"pre": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "br": true, "hr": true, "figure": true, "figcaption": true,
}

// Text flattens an HTML document to plain text. Block elements break lines;
// runs of whitespace collapse so the output reads like the rendered page.
func Text(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template").Remove()

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if blockTags[n.Data] {
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteString("\n")
		}
	}
	root := doc.Find("body")
	if len(root.Nodes) == 0 {
		root = doc.Selection
	}
	for _, n := range root.Nodes {
		walk(n)
	}

	text := spaceRuns.ReplaceAllString(sb.String(), " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// Markdown converts an HTML document to GitHub-flavored Markdown. Relative
// links and image sources are resolved against baseURL when one is given.
func Markdown(htmlContent, baseURL string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	if baseURL != "" {
		converter.AddRules(md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				href, exists := selec.Attr("href")
				if !exists {
					return nil
				}
				resolved := resolveURL(baseURL, href)
				title, hasTitle := selec.Attr("title")
				var titlePart string
				if hasTitle {
					titlePart = fmt.Sprintf(" %q", title)
				}
				str := fmt.Sprintf("[%s](%s)%s", strings.TrimSpace(selec.Text()), resolved, titlePart)
				return &str
			},
		})
	}

	cleaned, err := Clean(htmlContent)
	if err != nil {
		return "", err
	}
	return converter.ConvertString(cleaned)
}

// resolveURL resolves href against base, returning href unchanged when
// either side fails to parse.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

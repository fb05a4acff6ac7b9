package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxHiddenFragments = 20

// textAttributes carry text a model may read even though the page never renders it as body text
var textAttributes = []string{"title", "alt", "aria-label", "value", "placeholder"}

var (
	htmlMarkerPattern  = regexp.MustCompile(`(?i)<(?:!doctype|html|head|body|div|p|span|table|td|br|a|font|style|!--)[\s>/]`)
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--(.*?)-->`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// hiddenStylePattern matches inline CSS (lowercased, spaces removed) that hides text from a human reader
var hiddenStylePattern = regexp.MustCompile(
	`display:none|visibility:hidden|color:transparent|font-size:0(?:px|em|rem|pt|%)?(?:;|!|$)|opacity:0(?:;|!|$)`,
)

// LooksLikeHTML reports whether content is markup rather than plain text
func LooksLikeHTML(content string) bool {
	return htmlMarkerPattern.MatchString(content)
}

// ExtractText flattens an HTML body to the text an agent would read.
// Text a human would not see (hidden elements, comments, script and style bodies,
// text-bearing attributes) is appended in marked sections.
// Plain text is returned unchanged; unparsable markup falls back to the raw input.
func ExtractText(content string) string {
	if !LooksLikeHTML(content) {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	hidden := collectHiddenText(doc)
	comments := collectComments(content)
	attributes := collectAttributes(doc)
	embedded := collectEmbedded(doc)

	doc.Find("script, style, noscript").Remove()
	visible := collapseWhitespace(doc.Text())

	sections := []string{visible}
	for _, fragment := range hidden {
		sections = append(sections, fmt.Sprintf("[HIDDEN TEXT] %s", fragment))
	}
	for _, comment := range comments {
		sections = append(sections, fmt.Sprintf("[HTML COMMENT] %s", comment))
	}
	sections = append(sections, attributes...)
	sections = append(sections, embedded...)

	return strings.TrimSpace(strings.Join(sections, "\n"))
}

func collectHiddenText(doc *goquery.Document) []string {
	var fragments []string

	doc.Find("[hidden], [style], [aria-hidden=true]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(fragments) >= maxHiddenFragments {
			return false
		}
		if !isHidden(s) {
			return true
		}
		if text := collapseWhitespace(s.Text()); text != "" {
			fragments = append(fragments, text)
		}
		return true
	})

	return fragments
}

func isHidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, ok := s.Attr("aria-hidden"); ok && v == "true" {
		return true
	}

	style, ok := s.Attr("style")
	if !ok {
		return false
	}
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return hiddenStylePattern.MatchString(style)
}

// collectAttributes returns "[ATTRIBUTE name] value" sections
func collectAttributes(doc *goquery.Document) []string {
	var sections []string

	for _, name := range textAttributes {
		doc.Find("[" + name + "]").EachWithBreak(func(i int, s *goquery.Selection) bool {
			if len(sections) >= maxHiddenFragments {
				return false
			}
			value, _ := s.Attr(name)
			if value = collapseWhitespace(value); value != "" {
				sections = append(sections, fmt.Sprintf("[ATTRIBUTE %s] %s", name, value))
			}
			return true
		})
	}

	return sections
}

// collectEmbedded returns script, style and noscript bodies, labelled by tag
func collectEmbedded(doc *goquery.Document) []string {
	var sections []string

	doc.Find("script, style, noscript").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(sections) >= maxHiddenFragments {
			return false
		}
		if text := collapseWhitespace(s.Text()); text != "" {
			tag := strings.ToUpper(goquery.NodeName(s))
			sections = append(sections, fmt.Sprintf("[%s] %s", tag, text))
		}
		return true
	})

	return sections
}

// collectComments works on the raw markup: the parser drops comments from Text()
func collectComments(content string) []string {
	var comments []string
	for _, match := range htmlCommentPattern.FindAllStringSubmatch(content, maxHiddenFragments) {
		if text := collapseWhitespace(match[1]); text != "" {
			comments = append(comments, text)
		}
	}
	return comments
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

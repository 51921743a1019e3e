package text

import (
	"bytes"
	"html"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Sanitizer turns model output into plain text: markdown and HTML are
// stripped, odd Unicode spacing is normalized, and blank-line runs collapse to
// one empty line.
type Sanitizer struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewSanitizer creates a Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// Sanitize returns the cleaned text. The result is empty when nothing
// printable is left.
func (s *Sanitizer) Sanitize(input string) string {
	input = metadataFormatRegex.ReplaceAllString(input, "")
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")
	input = unicodeReplacer.Replace(input)
	if strings.TrimSpace(input) == "" {
		return ""
	}

	out := s.stripMarkup(input)
	out = controlCharsRegex.ReplaceAllString(out, " ")

	lines := strings.Split(out, "\n")
	for i := range lines {
		lines[i] = normalizeLineWhitespace(lines[i])
	}
	out = strings.Join(lines, "\n")
	out = multipleNewlinesRegex.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func (s *Sanitizer) stripMarkup(input string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(input), &buf); err != nil {
		return input
	}

	// loose list items wrap their text in a paragraph
	h := strings.ReplaceAll(buf.String(), "<li>\n<p>", "<li>")
	h = renderLists(h)
	h = blockTagsRegex.ReplaceAllString(h, "\n")
	return html.UnescapeString(s.policy.Sanitize(h))
}

// renderLists replaces list markup with "- " bullets and "N. " numbers.
func renderLists(h string) string {
	// one counter per open list, 0 for unordered lists
	var stack []int
	return listTagsRegex.ReplaceAllStringFunc(h, func(tag string) string {
		switch {
		case strings.HasPrefix(tag, "<ol"):
			start := 1
			if m := listTagsRegex.FindStringSubmatch(tag); m[1] != "" {
				start, _ = strconv.Atoi(m[1])
			}
			stack = append(stack, start)
			return "\n"
		case tag == "<ul>":
			stack = append(stack, 0)
			return "\n"
		case tag == "</ol>" || tag == "</ul>":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			return "\n"
		}

		// <li>
		if len(stack) == 0 || stack[len(stack)-1] == 0 {
			return "- "
		}
		n := stack[len(stack)-1]
		stack[len(stack)-1]++
		return strconv.Itoa(n) + ". "
	})
}

// normalizeLineWhitespace collapses whitespace runs within a line to one
// space and trims the line.
func normalizeLineWhitespace(line string) string {
	var b strings.Builder
	space := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(b.String())
}

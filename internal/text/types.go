// Package text cleans generated replies for plain-text Telegram delivery.
package text

import (
	"regexp"
	"strings"
)

var (
	// ASCII control characters other than tab and newline, plus DEL.
	controlCharsRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	multipleNewlinesRegex = regexp.MustCompile(`\n{3,}`)

	// Block level tags become line breaks before the HTML is stripped.
	blockTagsRegex = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>|</?blockquote>|<hr\s*/?>`)
	listTagsRegex  = regexp.MustCompile(`<ol(?: start="(\d+)")?>|</ol>|<ul>|</ul>|<li>`)

	// "[2025-03-06T22:30:11+01:00] USER:" style prefixes models sometimes
	// echo back from the history.
	metadataFormatRegex = regexp.MustCompile(`^\s*\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})\]\s+[^:\n]*:\s*`)

	unicodeReplacer = strings.NewReplacer(
		// invisible format characters
		"\u2060", "",
		"\uFEFF", "",
		"\u00AD", "",
		"\u200E", "",
		"\u200F", "",
		"\u2061", "",
		"\u2062", "",
		"\u2063", "",
		"\u2064", "",

		"\u2028", "\n",
		"\u2029", "\n\n",

		// unusual spaces
		"\u200B", " ",
		"\u200C", " ",
		"\u205F", " ",
		"\u2009", " ",
		"\u200A", " ",
		"\u202F", " ",
		"\u3000", " ",
		"\u00A0", " ",
	)
)

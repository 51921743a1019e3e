package telegram

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// MaxMessageLength is the Telegram limit for a text message, counted in
// UTF-16 code units.
const MaxMessageLength = 4096

// splitText cuts text into chunks of at most limit UTF-16 code units. Cuts
// prefer the last line break, then the last space, and fall back to a rune
// boundary. Whitespace at the cut is dropped and blank chunks are skipped.
func splitText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var chunks []string
	for text != "" {
		size, end := 0, 0
		lastLine, lastSpace := 0, 0
		for end < len(text) {
			r, width := utf8.DecodeRuneInString(text[end:])
			n := utf16.RuneLen(r)
			if n < 0 {
				n = 1
			}
			if size+n > limit {
				break
			}
			size += n
			end += width
			switch r {
			case '\n':
				lastLine = end
			case ' ', '\t':
				lastSpace = end
			}
		}

		if end == len(text) {
			chunks = appendChunk(chunks, text)
			break
		}

		switch next, _ := utf8.DecodeRuneInString(text[end:]); next {
		case '\n':
			lastLine = end
		case ' ', '\t':
			lastSpace = end
		}

		cut := end
		switch {
		case lastLine > 0:
			cut = lastLine
		case lastSpace > 0:
			cut = lastSpace
		case cut == 0:
			_, cut = utf8.DecodeRuneInString(text)
		}

		chunks = appendChunk(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], " \t\n")
	}
	return chunks
}

func appendChunk(chunks []string, chunk string) []string {
	chunk = strings.TrimRight(chunk, " \t\n")
	if strings.TrimSpace(chunk) == "" {
		return chunks
	}
	return append(chunks, chunk)
}

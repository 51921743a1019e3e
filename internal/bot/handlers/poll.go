package handlers

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minPollOptions = 2
	maxPollOptions = 10
)

var (
	// ErrInvalidPoll is returned by ParsePoll for malformed input.
	ErrInvalidPoll = errors.New("invalid poll")

	errPollFormat = fmt.Errorf("%w: expected \"Question? Option1, Option2\"", ErrInvalidPoll)
)

// Poll is a parsed /poll request.
type Poll struct {
	Question string
	Options  []string
}

// ParsePoll parses "Question? a, b, c". The question keeps its trailing "?".
// A missing "?" is a format error; an empty question or an option count
// outside 2..10 is a content error.
func ParsePoll(input string) (Poll, error) {
	question, rest, found := strings.Cut(input, "?")
	if !found {
		return Poll{}, errPollFormat
	}
	question = strings.TrimSpace(question)

	var options []string
	for _, o := range strings.Split(rest, ",") {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}

	switch {
	case question == "":
		return Poll{}, fmt.Errorf("%w: empty question", ErrInvalidPoll)
	case len(options) < minPollOptions:
		return Poll{}, fmt.Errorf("%w: need at least %d options, got %d", ErrInvalidPoll, minPollOptions, len(options))
	case len(options) > maxPollOptions:
		return Poll{}, fmt.Errorf("%w: at most %d options, got %d", ErrInvalidPoll, maxPollOptions, len(options))
	}
	return Poll{Question: question + "?", Options: options}, nil
}

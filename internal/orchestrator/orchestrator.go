// Package orchestrator turns a user prompt into a generated reply, reading
// and writing the conversation history around the generation call.
package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/edgard/rojitobot/internal/ai"
	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/state"
)

// History is the conversation log used by the Orchestrator.
type History interface {
	Read(ctx context.Context, key state.ConversationKey) []state.Message
	Append(ctx context.Context, key state.ConversationKey, msg state.Message) error
}

// Preferences resolves the reply language of a user.
type Preferences interface {
	GetLanguage(ctx context.Context, userID int64) string
}

// Request is one prompt to answer.
type Request struct {
	Key    state.ConversationKey
	UserID int64
	Prompt string

	// ReplyContext is the text of the message being replied to, if any.
	ReplyContext string
}

// Options holds the fixed generation settings.
type Options struct {
	SystemInstruction string
	WebSearch         bool

	// Temperature overrides the provider temperature for replies when set.
	Temperature *float32

	// Fallback is returned, localized, whenever generation fails.
	Fallback        map[string]string
	DefaultLanguage string
}

// Orchestrator answers prompts.
type Orchestrator struct {
	history History
	prefs   Preferences
	gen     ai.Generator
	builder *PromptBuilder
	opts    Options
	log     *slog.Logger
}

// New creates an Orchestrator.
func New(history History, prefs Preferences, gen ai.Generator, builder *PromptBuilder, opts Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if builder == nil {
		builder = NewPromptBuilder()
	}
	return &Orchestrator{
		history: history,
		prefs:   prefs,
		gen:     gen,
		builder: builder,
		opts:    opts,
		log:     log.With("component", "orchestrator"),
	}
}

// Respond returns the reply to req. It always returns usable text: when
// generation fails the localized fallback is returned and the history keeps
// the user's prompt without an assistant entry.
func (o *Orchestrator) Respond(ctx context.Context, req Request) string {
	log := o.log.With("conversation", string(req.Key), "user_id", req.UserID)

	prior := o.history.Read(ctx, req.Key)
	lang := o.prefs.GetLanguage(ctx, req.UserID)
	input := o.builder.Build(prior, req.Prompt, req.ReplyContext, lang)

	// The prompt is recorded before generating so a failed call still
	// leaves the user's turn in the history.
	if err := o.history.Append(ctx, req.Key, state.Message{Role: state.RoleUser, Content: req.Prompt}); err != nil {
		log.ErrorContext(ctx, "Failed to record user prompt", "error", err)
	}

	text, err := o.gen.Generate(ctx, &ai.Request{
		SystemInstruction: o.opts.SystemInstruction,
		Messages:          input,
		Temperature:       o.opts.Temperature,
		LanguageHint:      lang,
		WebSearch:         o.opts.WebSearch,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		log.ErrorContext(ctx, "Generation failed, sending fallback", "provider", o.gen.Name(), "language", lang, "error", err)
		return config.Text(o.opts.Fallback, lang, o.opts.DefaultLanguage)
	}

	if err := o.history.Append(ctx, req.Key, state.Message{Role: state.RoleAssistant, Content: text}); err != nil {
		log.ErrorContext(ctx, "Failed to record assistant reply", "error", err)
	}
	log.DebugContext(ctx, "Reply generated", "history_length", len(prior), "reply_length", len(text))
	return text
}

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rojitobot/internal/broadcast"
	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/metrics"
	"github.com/edgard/rojitobot/internal/orchestrator"
	"github.com/edgard/rojitobot/internal/state"
	"github.com/edgard/rojitobot/internal/telegram"
)

// Messenger sends replies back to Telegram.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
	SendPoll(ctx context.Context, chatID int64, question string, options []string) error
	Typing(ctx context.Context, chatID int64) error
}

// Registry records chat activity.
type Registry interface {
	Touch(ctx context.Context, dest state.Destination) error
}

// Engagement counts messages per user.
type Engagement interface {
	Increment(ctx context.Context, username string) (int64, error)
	TopN(ctx context.Context, n int) []state.Standing
}

// Preferences reads and stores the reply language.
type Preferences interface {
	GetLanguage(ctx context.Context, userID int64) string
	SetLanguage(ctx context.Context, userID int64, tag string) error
}

// Responder produces generated replies.
type Responder interface {
	Respond(ctx context.Context, req orchestrator.Request) string
}

// Broadcaster runs and replays broadcasts.
type Broadcaster interface {
	RunCycle(ctx context.Context) (broadcast.Report, error)
	Last(ctx context.Context) (state.Artifact, bool)
}

// Deps provides dependencies for the router.
type Deps struct {
	Logger      *slog.Logger
	Config      *config.Config
	Registry    Registry
	Engagement  Engagement
	Preferences Preferences
	Responder   Responder
	Broadcaster Broadcaster
}

// Outcome is how an update ended.
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"
	OutcomeHandled  Outcome = "handled"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Result is returned by Dispatch for every update.
type Result struct {
	Kind    Kind
	Outcome Outcome
	Err     error
}

// Router dispatches classified updates.
type Router struct {
	deps       Deps
	classifier *Classifier
	log        *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(deps Deps) *Router {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		deps:       deps,
		classifier: NewClassifier(deps.Config.Telegram.BotInfo),
		log:        log.With("component", "router"),
	}
}

// Handle is the default bot handler: every update goes through Dispatch.
func (r *Router) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	r.Dispatch(ctx, telegram.NewSender(b, r.deps.Config.Telegram.MaxMessageLength), update)
}

// Dispatch records activity for the update, then runs the matching command
// or chat reply.
func (r *Router) Dispatch(ctx context.Context, m Messenger, update *models.Update) Result {
	ev := r.classifier.Classify(update)
	if ev.Message != nil && ev.Message.Chat.Type != models.ChatTypeChannel {
		r.track(ctx, ev)
	}

	res := Result{Kind: ev.Kind, Outcome: OutcomeHandled}
	switch ev.Kind {
	case KindIgnore:
		res.Outcome = OutcomeIgnored
	case KindStart:
		res.Err = r.start(ctx, m, ev)
	case KindHelp:
		res.Err = r.help(ctx, m, ev)
	case KindTips:
		res.Err = r.tips(ctx, m, ev)
	case KindLeaderboard:
		res.Err = r.leaderboard(ctx, m, ev)
	case KindMeme:
		res.Err = r.meme(ctx, m, ev)
	case KindPoll:
		res.Err = r.poll(ctx, m, ev)
	case KindLanguage:
		res.Err = r.language(ctx, m, ev)
	case KindBroadcastNow:
		res.Err = r.adminOnly(ctx, m, ev, r.broadcastNow)
	case KindLastBroadcast:
		res.Err = r.adminOnly(ctx, m, ev, r.lastBroadcast)
	case KindChat:
		res.Err = r.chat(ctx, m, ev)
	}

	var rejected *rejection
	switch {
	case errors.As(res.Err, &rejected):
		res.Outcome = OutcomeRejected
	case res.Err != nil:
		res.Outcome = OutcomeFailed
		r.log.ErrorContext(ctx, "Update handling failed", "kind", ev.Kind.String(), "error", res.Err)
	}
	metrics.UpdatesTotal.WithLabelValues(ev.Kind.String(), string(res.Outcome)).Inc()
	return res
}

// track touches the registry for the chat and, for non-command messages
// with a sender, counts engagement. Failures are logged only.
func (r *Router) track(ctx context.Context, ev Event) {
	msg := ev.Message
	dest := state.Destination{
		ID:       strconv.FormatInt(msg.Chat.ID, 10),
		Kind:     state.KindDirect,
		Username: msg.Chat.Username,
	}
	if ev.IsGroup() {
		dest.Kind = state.KindGroup
		dest.Title = msg.Chat.Title
		dest.Username = ""
	}
	if err := r.deps.Registry.Touch(ctx, dest); err != nil {
		r.log.WarnContext(ctx, "Failed to record chat activity", "chat_id", msg.Chat.ID, "error", err)
	}

	if ev.Command != "" || msg.From == nil {
		return
	}
	if _, err := r.deps.Engagement.Increment(ctx, displayName(msg.From)); err != nil {
		r.log.WarnContext(ctx, "Failed to update engagement", "user_id", msg.From.ID, "error", err)
	}
}

func displayName(u *models.User) string {
	switch {
	case u.Username != "":
		return u.Username
	case u.FirstName != "":
		return u.FirstName
	default:
		return "unknown"
	}
}

// lang resolves the reply language of the sender.
func (r *Router) lang(ctx context.Context, msg *models.Message) string {
	if msg.From == nil {
		return r.deps.Config.Conversation.DefaultLanguage
	}
	return r.deps.Preferences.GetLanguage(ctx, msg.From.ID)
}

func (r *Router) text(msgs map[string]string, lang string) string {
	return config.Text(msgs, lang, r.deps.Config.Conversation.DefaultLanguage)
}

// rejection marks user input that was refused with an explanation.
type rejection struct {
	reason string
}

func (e *rejection) Error() string { return "rejected: " + e.reason }

// reject sends text as a reply and reports the update as rejected.
func reject(ctx context.Context, m Messenger, msg *models.Message, reason, text string) error {
	if err := m.Reply(ctx, msg.Chat.ID, msg.ID, text); err != nil {
		return err
	}
	return &rejection{reason: reason}
}

// Commands returns the command menu published with SetMyCommands.
func Commands() []models.BotCommand {
	return []models.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "Show available commands"},
		{Command: "tips", Description: "Get a betting tip: /tips [sport]"},
		{Command: "leaderboard", Description: "Show the most active users"},
		{Command: "meme", Description: "Get a meme caption: /meme [topic]"},
		{Command: "poll", Description: "Create a poll: /poll Question? a, b"},
		{Command: "language", Description: "Set reply language: en, es, pt, ko"},
	}
}

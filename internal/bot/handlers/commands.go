package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/orchestrator"
	"github.com/edgard/rojitobot/internal/state"
)

const (
	defaultSport     = "football"
	defaultMemeTopic = "funny"
	leaderboardSize  = 5
)

func (r *Router) start(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	welcome := r.text(r.deps.Config.Messages.Welcome, r.lang(ctx, msg))
	if me := r.deps.Config.Telegram.BotInfo; me != nil && me.Username != "" {
		welcome = strings.ReplaceAll(welcome, "@botname", "@"+me.Username)
	}
	return m.Send(ctx, msg.Chat.ID, welcome)
}

func (r *Router) help(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	return m.Send(ctx, msg.Chat.ID, r.text(r.deps.Config.Messages.Help, r.lang(ctx, msg)))
}

func (r *Router) tips(ctx context.Context, m Messenger, ev Event) error {
	sport := ev.Args
	if sport == "" {
		sport = defaultSport
	}
	return r.generate(ctx, m, ev, "Provide a betting tip for "+sport)
}

func (r *Router) meme(ctx context.Context, m Messenger, ev Event) error {
	topic := ev.Args
	if topic == "" {
		topic = defaultMemeTopic
	}
	return r.generate(ctx, m, ev, "Generate a short, funny meme caption about "+topic)
}

func (r *Router) chat(ctx context.Context, m Messenger, ev Event) error {
	return r.generate(ctx, m, ev, ev.Args)
}

// generate shows the typing indicator, asks the responder and replies to the
// triggering message.
func (r *Router) generate(ctx context.Context, m Messenger, ev Event, prompt string) error {
	msg := ev.Message
	log := r.log.With("handler", ev.Kind.String(), "chat_id", msg.Chat.ID)

	if err := m.Typing(ctx, msg.Chat.ID); err != nil {
		log.DebugContext(ctx, "Typing action failed", "error", err)
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	req := orchestrator.Request{
		Key:    state.ConversationKeyFor(ev.IsGroup(), msg.Chat.ID, userID),
		UserID: userID,
		Prompt: prompt,
	}
	if reply := msg.ReplyToMessage; reply != nil {
		req.ReplyContext = messageText(reply)
	}

	text := r.deps.Responder.Respond(ctx, req)
	return m.Reply(ctx, msg.Chat.ID, msg.ID, text)
}

func (r *Router) leaderboard(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	lang := r.lang(ctx, msg)

	top := r.deps.Engagement.TopN(ctx, leaderboardSize)
	if len(top) == 0 {
		return m.Send(ctx, msg.Chat.ID, r.text(r.deps.Config.Messages.LeaderboardEmpty, lang))
	}

	lines := make([]string, 0, len(top)+1)
	if title := r.text(r.deps.Config.Messages.LeaderboardTitle, lang); title != "" {
		lines = append(lines, title)
	}
	for _, s := range top {
		lines = append(lines, fmt.Sprintf("%d. %s: %d", s.Rank, s.Username, s.Count))
	}
	return m.Send(ctx, msg.Chat.ID, strings.Join(lines, "\n"))
}

func (r *Router) poll(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	lang := r.lang(ctx, msg)

	p, err := ParsePoll(ev.Args)
	switch {
	case errors.Is(err, errPollFormat):
		return reject(ctx, m, msg, err.Error(), r.text(r.deps.Config.Messages.PollUsage, lang))
	case err != nil:
		return reject(ctx, m, msg, err.Error(), r.text(r.deps.Config.Messages.PollInvalid, lang))
	}
	return m.SendPoll(ctx, msg.Chat.ID, p.Question, p.Options)
}

func (r *Router) language(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	tag := strings.ToLower(strings.TrimSpace(ev.Args))
	if msg.From == nil || !config.IsSupportedLanguage(tag) {
		return reject(ctx, m, msg, fmt.Sprintf("unsupported language %q", tag), r.text(r.deps.Config.Messages.LanguageUsage, r.lang(ctx, msg)))
	}

	if err := r.deps.Preferences.SetLanguage(ctx, msg.From.ID, tag); err != nil {
		return err
	}
	return m.Reply(ctx, msg.Chat.ID, msg.ID, r.text(r.deps.Config.Messages.LanguageSet, tag))
}

// adminOnly runs next only when the sender is the configured admin and
// otherwise answers with the unauthorized message.
func (r *Router) adminOnly(ctx context.Context, m Messenger, ev Event, next func(context.Context, Messenger, Event) error) error {
	msg := ev.Message
	if msg.From == nil || msg.From.ID != r.deps.Config.Telegram.AdminUserID {
		var userID int64
		if msg.From != nil {
			userID = msg.From.ID
		}
		r.log.WarnContext(ctx, "Unauthorized access attempt", "command", ev.Command, "user_id", userID, "chat_id", msg.Chat.ID)
		return reject(ctx, m, msg, "unauthorized", r.text(r.deps.Config.Messages.Unauthorized, r.lang(ctx, msg)))
	}
	return next(ctx, m, ev)
}

func (r *Router) broadcastNow(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	lang := r.lang(ctx, msg)

	if timeout := r.deps.Config.Broadcast.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := r.deps.Broadcaster.RunCycle(ctx)
	if err != nil {
		if sendErr := m.Reply(context.WithoutCancel(ctx), msg.Chat.ID, msg.ID, r.text(r.deps.Config.Messages.BroadcastFailed, lang)); sendErr != nil {
			r.log.WarnContext(ctx, "Failed to report broadcast failure", "error", sendErr)
		}
		return err
	}
	done := fmt.Sprintf(r.text(r.deps.Config.Messages.BroadcastDone, lang), report.Delivered, report.Targets)
	return m.Reply(context.WithoutCancel(ctx), msg.Chat.ID, msg.ID, done)
}

func (r *Router) lastBroadcast(ctx context.Context, m Messenger, ev Event) error {
	msg := ev.Message
	artifact, ok := r.deps.Broadcaster.Last(ctx)
	if !ok {
		return m.Send(ctx, msg.Chat.ID, r.text(r.deps.Config.Messages.NoBroadcast, r.lang(ctx, msg)))
	}
	return m.Send(ctx, msg.Chat.ID, artifact.Content)
}
